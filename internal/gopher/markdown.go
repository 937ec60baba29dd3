package gopher

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownIndentSize is the number of spaces used per list nesting level
// in rendered output.
const markdownIndentSize = 2

// RenderMarkdown parses source as Markdown and walks it into plain
// Gopher-friendly text: headings decorated with "="/"-" rules, paragraphs
// unwrapped, list items prefixed, fenced code blocks indented and kept
// verbatim, and links rendered inline as "text <url>". It never returns
// wire framing (no menu header, no terminator) — the result is meant to
// be sent exactly as a file response's raw bytes would be.
func RenderMarkdown(source []byte) (string, error) {
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)
	if doc == nil {
		return "", fmt.Errorf("gopher: markdown parser returned no document")
	}

	r := &markdownRenderer{}
	r.walk(doc, source)
	return r.buf.String(), nil
}

type markdownRenderer struct {
	buf       bytes.Buffer
	listDepth int
}

func (r *markdownRenderer) walk(node ast.Node, source []byte) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		return r.visit(n, source, entering), nil
	})
}

func (r *markdownRenderer) visit(n ast.Node, source []byte, entering bool) ast.WalkStatus {
	switch node := n.(type) {
	case *ast.Document:
		return ast.WalkContinue

	case *ast.Heading:
		if entering {
			r.buf.WriteString("\n")
			switch node.Level {
			case 1:
				r.buf.WriteString("=== ")
			case 2:
				r.buf.WriteString("--- ")
			default:
				r.buf.WriteString(strings.Repeat("#", node.Level) + " ")
			}
		} else {
			if node.Level == 1 || node.Level == 2 {
				text := extractText(node, source)
				rule := "="
				if node.Level == 2 {
					rule = "-"
				}
				r.buf.WriteString(" " + strings.Repeat(rule, len(text)+8))
			}
			r.buf.WriteString("\n\n")
		}
		return ast.WalkContinue

	case *ast.Paragraph:
		if entering {
			r.buf.WriteString(strings.Repeat(" ", r.listDepth*markdownIndentSize))
		} else {
			r.buf.WriteString("\n\n")
		}
		return ast.WalkContinue

	case *ast.Text:
		if entering {
			r.buf.Write(node.Text(source))
			if node.SoftLineBreak() {
				r.buf.WriteString(" ")
			} else if node.HardLineBreak() {
				r.buf.WriteString("\n")
			}
		}
		return ast.WalkContinue

	case *ast.String:
		if entering {
			r.buf.Write(node.Value)
		}
		return ast.WalkContinue

	case *ast.Link:
		if !entering {
			r.buf.WriteString(fmt.Sprintf(" <%s>", node.Destination))
		}
		return ast.WalkContinue

	case *ast.List:
		if entering {
			r.listDepth++
		} else {
			r.listDepth--
			r.buf.WriteString("\n")
		}
		return ast.WalkContinue

	case *ast.ListItem:
		if entering {
			r.buf.WriteString(strings.Repeat(" ", (r.listDepth-1)*markdownIndentSize) + "- ")
		}
		return ast.WalkContinue

	case *ast.CodeBlock, *ast.FencedCodeBlock:
		if entering {
			r.buf.WriteString("\n")
			for _, line := range bytes.Split(node.Text(source), []byte("\n")) {
				r.buf.WriteString("    ")
				r.buf.Write(line)
				r.buf.WriteString("\n")
			}
			r.buf.WriteString("\n")
		}
		return ast.WalkSkipChildren

	case *ast.CodeSpan:
		if entering {
			r.buf.WriteString("`")
			r.buf.Write(node.Text(source))
			r.buf.WriteString("`")
		}
		return ast.WalkSkipChildren

	case *ast.ThematicBreak:
		if entering {
			r.buf.WriteString("\n" + strings.Repeat("-", 70) + "\n\n")
		}
		return ast.WalkContinue

	default:
		return ast.WalkContinue
	}
}

func extractText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Text:
			buf.Write(n.Text(source))
		case *ast.String:
			buf.Write(n.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
