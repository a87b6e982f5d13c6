// Package markdown turns Markdown documents into sanitized HTML with
// highlighted code blocks.
//
// Code blocks are cut out of the document while it is serialized, sanitized
// under the code allow-list, and spliced back in only after the rest of the
// document has been through the document allow-list. Neither half is ever
// sanitized by the other's policy.
package markdown

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"syntaxia/internal/highlight"
)

// Renderer is immutable and safe for concurrent use. All per-document state
// lives in the goldmark instance built for each Render call.
type Renderer struct {
	highlighter *highlight.Highlighter
	code        *bluemonday.Policy
	doc         *bluemonday.Policy
}

// New creates a Renderer. code sanitizes highlighted blocks and doc
// sanitizes everything else.
func New(h *highlight.Highlighter, code, doc *bluemonday.Policy) *Renderer {
	return &Renderer{highlighter: h, code: code, doc: doc}
}

// Render converts text to HTML. Relative "./" links and image sources are
// rewritten to live under /basePath/.
func (r *Renderer) Render(text, basePath string) (string, error) {
	capture := &codeCapture{
		highlighter: r.highlighter,
		policy:      r.code,
		nonce:       strings.ReplaceAll(uuid.NewString(), "-", ""),
	}

	var buf bytes.Buffer
	if err := newGoldmark(capture).Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	if token := capture.finish(); token != "" {
		buf.WriteString(token)
	}

	out := r.doc.Sanitize(buf.String())
	out = capture.substitute(out)
	return RewriteRelativeLinks(out, basePath), nil
}

// newGoldmark builds a parser whose fenced code blocks go to capture.
func newGoldmark(capture *codeCapture) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.NewTable(
				extension.WithTableCellAlignMethod(extension.TableCellAlignAttribute),
			),
			extension.Strikethrough,
			extension.TaskList,
			extension.Linkify,
			extension.Footnote,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&codeBlockRenderer{capture: capture}, 100),
			),
		),
	)
}

// RewriteRelativeLinks points src="./ and href="./ attributes at /basePath/.
func RewriteRelativeLinks(doc, basePath string) string {
	prefix := "/"
	for _, seg := range strings.Split(strings.Trim(basePath, "/"), "/") {
		if seg != "" {
			prefix += url.PathEscape(seg) + "/"
		}
	}
	return strings.NewReplacer(
		`src="./`, `src="`+prefix,
		`href="./`, `href="`+prefix,
	).Replace(doc)
}
