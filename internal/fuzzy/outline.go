package fuzzy

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var outlineParser = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
).Parser()

// Outline lists the headings and links of a markdown document in source
// order. Top holds the 1-based source line of each item.
func Outline(source []byte) []Item {
	doc := outlineParser.Parse(text.NewReader(source))

	var items []Item
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			item := Item{
				Kind:  KindHeading,
				Text:  nodeText(node, source),
				Level: node.Level,
				Top:   float64(lineOf(node, source)),
			}
			if id, ok := node.AttributeString("id"); ok {
				if b, ok := id.([]byte); ok {
					item.Target = "#" + string(b)
				}
			}
			items = append(items, item)
		case *ast.Link:
			items = append(items, Item{
				Kind:   KindLink,
				Text:   nodeText(node, source),
				Target: string(node.Destination),
				Top:    float64(lineOf(node, source)),
			})
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			url := string(node.URL(source))
			items = append(items, Item{
				Kind:   KindLink,
				Text:   url,
				Target: url,
				Top:    float64(lineOf(node, source)),
			})
		}
		return ast.WalkContinue, nil
	})
	return items
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				b.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// lineOf finds the first source line of n, climbing to the enclosing block
// for inline nodes.
func lineOf(n ast.Node, source []byte) int {
	if t, ok := n.FirstChild().(*ast.Text); ok {
		return bytes.Count(source[:t.Segment.Start], []byte("\n")) + 1
	}
	for p := n; p != nil; p = p.Parent() {
		if p.Type() != ast.TypeBlock {
			continue
		}
		if lines := p.Lines(); lines != nil && lines.Len() > 0 {
			return bytes.Count(source[:lines.At(0).Start], []byte("\n")) + 1
		}
	}
	return 1
}
