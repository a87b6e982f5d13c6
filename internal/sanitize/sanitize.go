// Package sanitize holds the two HTML allow-lists used when rendering
// workspace content. Policies are built once and are safe for concurrent
// use.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	alignment   = regexp.MustCompile(`^(left|right|center)$`)
	checkbox    = regexp.MustCompile(`^checkbox$`)
	taskItem    = regexp.MustCompile(`^task-list-item-checkbox$`)
	anchorID    = regexp.MustCompile(`^[A-Za-z0-9_:-]+$`)
	linkTarget  = regexp.MustCompile(`^_blank$`)
	cssClasses  = regexp.MustCompile(`^[A-Za-z0-9_ -]+$`)
	codeStyling = []string{
		"color",
		"background-color",
		"font-weight",
		"font-style",
		"text-decoration",
		"display",
		"white-space",
		"padding",
		"margin",
		"border-radius",
		"width",
	}
)

// Code returns the allow-list for highlighted code. Only container tags
// survive, and only with the class and style attributes that carry colour.
func Code() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "span", "pre", "code")
	p.AllowAttrs("class").Matching(cssClasses).OnElements("div", "span", "pre", "code")
	p.AllowStyles(codeStyling...).OnElements("div", "span", "pre", "code")
	return p
}

// Document returns the allow-list applied to a whole rendered Markdown
// document. Highlighted code never passes through it.
func Document() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"strong", "em", "del", "code", "pre", "blockquote",
		"ul", "ol", "li",
		"span", "div", "sup",
		"table", "thead", "tbody", "tr", "th", "td",
		"details", "summary",
	)

	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("target").Matching(linkTarget).OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("img")
	p.AllowAttrs("align").Matching(alignment).OnElements("p", "h1", "h2", "h3", "h4", "h5", "h6", "th", "td")
	p.AllowAttrs("id").Matching(anchorID).OnElements("h1", "h2", "h3", "h4", "h5", "h6", "li", "sup")

	p.AllowAttrs("type").Matching(checkbox).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowAttrs("class").Matching(taskItem).OnElements("input")

	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return p
}
