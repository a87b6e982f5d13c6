// Package highlight renders source files as themed HTML using chroma.
package highlight

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Default style names.
const (
	DefaultDarkStyle  = "monokai"
	DefaultLightStyle = "github"
)

// Result holds the two themed renderings of one piece of content.
type Result struct {
	Dark        string
	Light       string
	LineNumbers bool
}

// HTML joins both variants into the markup the page stylesheet toggles between.
func (r Result) HTML() string {
	var b strings.Builder
	writeVariant(&b, "dark-code", r.Dark, r.LineNumbers)
	writeVariant(&b, "light-code", r.Light, r.LineNumbers)
	return b.String()
}

func writeVariant(b *strings.Builder, class, body string, lines bool) {
	b.WriteString(`<div class="` + class + `">`)
	if lines {
		b.WriteString(`<div class="code-with-lines">`)
	}
	b.WriteString(body)
	if lines {
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
}

// Highlighter holds the resolved styles and formatter. It is immutable after
// New and safe for concurrent use.
type Highlighter struct {
	dark      *chroma.Style
	light     *chroma.Style
	formatter *chromahtml.Formatter
}

// New creates a Highlighter. Unknown style names fall back to chroma's
// default style.
func New(darkStyle, lightStyle string) *Highlighter {
	return &Highlighter{
		dark:      lookupStyle(darkStyle, DefaultDarkStyle),
		light:     lookupStyle(lightStyle, DefaultLightStyle),
		formatter: chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4)),
	}
}

func lookupStyle(name, fallback string) *chroma.Style {
	if name == "" {
		name = fallback
	}
	if s, ok := styles.Registry[strings.ToLower(name)]; ok {
		return s
	}
	return styles.Fallback
}

// StyleExists reports whether chroma knows a style by that name.
func StyleExists(name string) bool {
	_, ok := styles.Registry[strings.ToLower(name)]
	return ok
}

// Highlight renders content twice, once per theme. The lexer is picked from
// the file name and falls back to plain text. It never fails: a formatting
// error degrades to escaped plain text.
func (h *Highlighter) Highlight(path, content string, withLineNumbers bool) Result {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	res := Result{
		Dark:        h.render(lexer, h.dark, content),
		Light:       h.render(lexer, h.light, content),
		LineNumbers: withLineNumbers,
	}
	if withLineNumbers {
		gutter := Gutter(CountLines(content))
		res.Dark = gutter + `<div class="code-content">` + res.Dark + `</div>`
		res.Light = gutter + `<div class="code-content">` + res.Light + `</div>`
	}
	return res
}

func (h *Highlighter) render(lexer chroma.Lexer, style *chroma.Style, content string) string {
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return plain(content)
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, style, iterator); err != nil {
		return plain(content)
	}
	return buf.String()
}

func plain(content string) string {
	return "<pre><code>" + html.EscapeString(content) + "</code></pre>"
}

// Gutter renders right-aligned line numbers 1..n. The width is the digit
// count of n.
func Gutter(n int) string {
	width := len(strconv.Itoa(n))
	var b strings.Builder
	b.WriteString(`<div class="line-numbers">`)
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, `<span class="line-number">%*d</span>`, width, i)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// CountLines counts lines the way a line iterator does: a trailing newline
// does not open another line, and empty content has none.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
