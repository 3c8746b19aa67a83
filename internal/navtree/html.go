package navtree

import (
	"fmt"
	"html"
	"strings"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

// ToHTML renders the tree as nested <ul><li> HTML for the sidebar. Folders on
// the path to activePath are rendered expanded.
func (n *FolderNode) ToHTML(activePath string, cfg ordering.Config) string {
	var b strings.Builder
	homeActive := ""
	if activePath == "/" {
		homeActive = ` class="active"`
	}
	fmt.Fprintf(&b, `<ul><li class="file home-link"><a href="/"%s>%s</a></li></ul>`+"\n", homeActive, html.EscapeString(n.DerivedName()))

	renderChildren(&b, n, activePath, cfg)
	return b.String()
}

func renderChildren(b *strings.Builder, node *FolderNode, activePath string, cfg ordering.Config) {
	files := node.SortedFiles(cfg)
	children := node.SortedChildren(cfg)
	if len(files) == 0 && len(children) == 0 {
		return
	}

	b.WriteString("<ul>\n")
	for _, f := range files {
		// The folder's own index is reached through the folder label.
		if f.URLPath == node.Path {
			continue
		}
		activeClass := ""
		if f.URLPath == activePath {
			activeClass = ` class="active"`
		}
		fmt.Fprintf(b, `<li class="file"><a href="%s"%s>%s</a></li>`+"\n",
			html.EscapeString(f.URLPath), activeClass, html.EscapeString(f.Title()))
	}
	for _, child := range children {
		expanded := ""
		if strings.HasPrefix(activePath, child.Path) {
			expanded = "expanded"
		}
		label := html.EscapeString(child.DerivedName())
		if _, ok := child.Index(); ok {
			label = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(child.Path), label)
		}
		fmt.Fprintf(b, `<li class="dir %s" data-count="%d"><span class="dir-toggle">%s</span>`+"\n",
			expanded, child.DescendantCount, label)
		renderChildren(b, child, activePath, cfg)
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>\n")
}
