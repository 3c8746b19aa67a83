package navtree

import (
	"fmt"
	"strings"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

// ToText renders the tree as an indented outline for terminals and agents.
// Folders are suffixed with "/" and their descendant count; documents show
// their title and URL path.
func (n *FolderNode) ToText(cfg ordering.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/ (%d)\n", n.DerivedName(), n.DescendantCount)
	writeText(&b, n, cfg, 1)
	return b.String()
}

func writeText(b *strings.Builder, node *FolderNode, cfg ordering.Config, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range node.SortedFiles(cfg) {
		fmt.Fprintf(b, "%s- %s  %s\n", indent, f.Title(), f.URLPath)
	}
	for _, child := range node.SortedChildren(cfg) {
		fmt.Fprintf(b, "%s%s/ (%d)\n", indent, child.DerivedName(), child.DescendantCount)
		writeText(b, child, cfg, depth+1)
	}
}
