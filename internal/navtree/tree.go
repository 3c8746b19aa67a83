// Package navtree turns the flat document index into a folder hierarchy.
package navtree

import (
	"slices"
	"strings"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

// FolderNode is one folder of the navigation tree. A folder takes its title
// and frontmatter from its index document so it can be sorted like a file.
type FolderNode struct {
	Name            string
	Path            string // Canonical, with trailing slash: "/", "/a/", "/a/b/".
	Title           string
	Frontmatter     docindex.Frontmatter
	Children        map[string]*FolderNode
	Files           []docindex.Record // Documents directly in this folder, index included.
	DescendantCount int

	index *docindex.Record
}

var _ ordering.Entity = (*FolderNode)(nil)

func newFolder(name, path string) *FolderNode {
	return &FolderNode{
		Name:     name,
		Path:     path,
		Title:    formatDirName(name),
		Children: make(map[string]*FolderNode),
	}
}

// Build constructs the folder tree from records. Records whose last path
// segment is indexFile describe their folder and are still listed in its
// Files. Records with no usable path segments are placed at the root.
func Build(records []docindex.Record, indexFile string) *FolderNode {
	if indexFile == "" {
		indexFile = docindex.DefaultIndexFile
	}
	root := newFolder("", "/")
	root.Title = "Home"

	for _, rec := range records {
		segments := splitSegments(rec.RawPath)
		if len(segments) == 0 {
			root.Files = append(root.Files, rec)
			continue
		}

		current := root
		for _, seg := range segments[:len(segments)-1] {
			child, ok := current.Children[seg]
			if !ok {
				child = newFolder(seg, current.Path+seg+"/")
				current.Children[seg] = child
			}
			current = child
		}

		if segments[len(segments)-1] == indexFile && current.index == nil {
			r := rec
			current.index = &r
			current.Frontmatter = rec.Frontmatter
			if title, ok := rec.Frontmatter["title"].(string); ok && strings.TrimSpace(title) != "" {
				current.Title = title
			}
		}
		current.Files = append(current.Files, rec)
	}

	countDescendants(root)
	return root
}

func splitSegments(p string) []string {
	parts := strings.Split(p, "/")
	segments := parts[:0]
	for _, s := range parts {
		if s != "" && s != "." {
			segments = append(segments, s)
		}
	}
	return segments
}

func countDescendants(n *FolderNode) int {
	total := len(n.Files)
	for _, child := range n.Children {
		total += countDescendants(child)
	}
	n.DescendantCount = total
	return total
}

// Index returns the folder's index document, if it has one.
func (n *FolderNode) Index() (docindex.Record, bool) {
	if n.index == nil {
		return docindex.Record{}, false
	}
	return *n.index, true
}

// DerivedName implements ordering.Entity.
func (n *FolderNode) DerivedName() string {
	if n.Title != "" {
		return n.Title
	}
	return n.Name
}

// Filename implements ordering.Entity.
func (n *FolderNode) Filename() string { return n.Name }

// Meta implements ordering.Entity.
func (n *FolderNode) Meta() map[string]any { return n.Frontmatter }

// Timestamps implements ordering.Entity. Folders carry no timestamps.
func (n *FolderNode) Timestamps() (int64, int64, bool) { return 0, 0, false }

// SortedChildren returns the child folders ordered by cfg. Children are
// pre-sorted by name so folders that tie under cfg come out the same way
// on every call.
func (n *FolderNode) SortedChildren(cfg ordering.Config) []*FolderNode {
	children := make([]*FolderNode, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, c)
	}
	slices.SortFunc(children, func(a, b *FolderNode) int { return strings.Compare(a.Name, b.Name) })
	ordering.Sort(children, cfg)
	return children
}

// SortedFiles returns the folder's documents ordered by cfg.
func (n *FolderNode) SortedFiles(cfg ordering.Config) []docindex.Record {
	return ordering.Sorted(n.Files, cfg)
}

// Find returns the folder with the given canonical path.
func (n *FolderNode) Find(folderPath string) (*FolderNode, bool) {
	current := n
	for _, seg := range splitSegments(folderPath) {
		child, ok := current.Children[seg]
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, true
}

// Crumb is one step of a breadcrumb trail.
type Crumb struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Breadcrumbs returns the folder chain from the root down to the folder
// that contains urlPath. The root is always the first entry.
func (n *FolderNode) Breadcrumbs(urlPath string) []Crumb {
	crumbs := []Crumb{{Title: n.DerivedName(), Path: n.Path}}
	current := n
	segments := splitSegments(docindex.FolderOf(urlPath))
	for _, seg := range segments {
		child, ok := current.Children[seg]
		if !ok {
			break
		}
		crumbs = append(crumbs, Crumb{Title: child.DerivedName(), Path: child.Path})
		current = child
	}
	return crumbs
}

// formatDirName converts a directory name to a human-readable display name.
func formatDirName(name string) string {
	words := strings.FieldsFunc(name, func(c rune) bool {
		return c == '-' || c == '_'
	})
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
