// Package render converts markdown documents into HTML pages and into the
// plain text that search indexes consume.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
)

// Renderer holds a configured goldmark instance and the page template.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

// New creates a Renderer. style is a chroma style name such as "github".
func New(style string) (*Renderer, error) {
	if style == "" {
		style = "github"
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Renderer{md: md, tmpl: tmpl}, nil
}

// Markdown converts a document, frontmatter included, to an HTML fragment.
// isIndex tells whether the document is its folder's index, which changes how
// relative links resolve.
func (r *Renderer) Markdown(src []byte, isIndex bool) (template.HTML, error) {
	_, body, _ := docindex.SplitFrontmatter(src)

	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	out := postProcessMermaid(buf.String())
	out = rewriteMDLinks(out, isIndex)
	return template.HTML(out), nil
}

// Link is a titled destination.
type Link struct {
	Title string
	URL   string
}

// Page is everything the page template needs.
type Page struct {
	Title       string
	SiteName    string
	Description string
	Content     template.HTML
	TreeHTML    template.HTML
	Breadcrumbs []Link
	Prev        *Link
	Next        *Link
	// Live enables the search box and refresh notifications, which need the
	// server.
	Live bool
}

// Execute writes a full HTML page.
func (r *Renderer) Execute(w io.Writer, p Page) error {
	return r.tmpl.Execute(w, p)
}

// postProcessMermaid converts <pre><code class="language-mermaid">...</code></pre>
// blocks into <div class="mermaid">...</div> for Mermaid.js rendering.
func postProcessMermaid(html string) string {
	const openTag = `<pre><code class="language-mermaid">`
	const closeTag = `</code></pre>`

	for {
		idx := strings.Index(html, openTag)
		if idx == -1 {
			break
		}
		endIdx := strings.Index(html[idx:], closeTag)
		if endIdx == -1 {
			break
		}
		endIdx += idx

		mermaidContent := html[idx+len(openTag) : endIdx]
		html = html[:idx] + `<div class="mermaid">` + mermaidContent + `</div>` + html[endIdx+len(closeTag):]
	}

	return html
}

var mdLink = regexp.MustCompile(`href="([^":#?]*)\.md(#[^"]*)?"`)

// rewriteMDLinks points relative .md links at the folder-style URL the target
// is served under. Ordinary pages live one level below their folder, so
// their relative links gain a "../"; index pages are the folder itself.
func rewriteMDLinks(content string, isIndex bool) string {
	up := "../"
	if isIndex {
		up = ""
	}
	return mdLink.ReplaceAllStringFunc(content, func(m string) string {
		sub := mdLink.FindStringSubmatch(m)
		target, frag := sub[1], sub[2]
		if target == "index" {
			target = ""
		}
		target = strings.TrimSuffix(target, "/index")

		switch {
		case strings.HasPrefix(target, "/"):
			target = strings.TrimSuffix(target, "/") + "/"
		case target == "" && up == "":
			target = "./"
		case target == "":
			target = up
		default:
			target = up + target + "/"
		}
		return `href="` + target + frag + `"`
	})
}

// PlainText extracts the readable text of a markdown body, dropping markup.
// Blocks are separated by newlines.
func PlainText(body []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(body))

	var b strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(body))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := node.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(body))
				}
			}
		default:
			if !entering && n.Type() == ast.TypeBlock {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(collapseBlankLines(b.String()))
}

var blankRun = regexp.MustCompile(`\n{2,}`)

func collapseBlankLines(s string) string {
	return blankRun.ReplaceAllString(s, "\n")
}
