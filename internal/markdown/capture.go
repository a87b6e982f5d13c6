package markdown

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"syntaxia/internal/highlight"
)

type captureState int

const (
	stateNormal captureState = iota
	stateInCode
)

// codeCapture pulls fenced code blocks out of the document stream. Each block
// is highlighted and sanitized on its own, stored in blocks, and replaced in
// the stream by an inert token.
type codeCapture struct {
	highlighter *highlight.Highlighter
	policy      *bluemonday.Policy
	nonce       string

	state  captureState
	lang   string
	buf    strings.Builder
	blocks []string
}

func (c *codeCapture) enter(lang string) {
	c.state = stateInCode
	c.lang = lang
	c.buf.Reset()
}

func (c *codeCapture) text(b []byte) {
	if c.state == stateInCode {
		c.buf.Write(b)
	}
}

// leave closes the open block and returns the token that stands in for it.
func (c *codeCapture) leave() string {
	if c.state != stateInCode {
		return ""
	}
	i := len(c.blocks)
	name := fmt.Sprintf("block%d.%s", i, ExtensionFor(c.lang))
	highlighted := c.highlighter.Highlight(name, c.buf.String(), false)
	c.blocks = append(c.blocks, c.policy.Sanitize(highlighted.HTML()))

	c.state = stateNormal
	c.lang = ""
	c.buf.Reset()
	return c.token(i)
}

// finish flushes a block that was still open when the stream ended.
func (c *codeCapture) finish() string {
	return c.leave()
}

func (c *codeCapture) token(i int) string {
	return fmt.Sprintf("SYNTAXIACODE%s%dEND", c.nonce, i)
}

// substitute swaps every token for its highlighted block.
func (c *codeCapture) substitute(doc string) string {
	if len(c.blocks) == 0 {
		return doc
	}
	pairs := make([]string, 0, 2*len(c.blocks))
	for i, block := range c.blocks {
		pairs = append(pairs, c.token(i), block)
	}
	return strings.NewReplacer(pairs...).Replace(doc)
}

// codeBlockRenderer feeds fenced code blocks from the goldmark AST into a
// codeCapture instead of serializing them.
type codeBlockRenderer struct {
	capture *codeCapture
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.FencedCodeBlock)
	if entering {
		r.capture.enter(string(n.Language(source)))
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			r.capture.text(seg.Value(source))
		}
		return ast.WalkContinue, nil
	}
	if token := r.capture.leave(); token != "" {
		_, _ = w.WriteString(token)
		_ = w.WriteByte('\n')
	}
	return ast.WalkContinue, nil
}
