// Package sequence projects the folder tree into one linear reading order
// and answers previous/next questions against it.
package sequence

import (
	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/navtree"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

// Flatten walks the tree depth-first. At each folder its own documents come
// first, sorted by cfg, then its child folders, sorted by cfg, are visited in
// turn. A folder's index document is one of its documents and takes no
// special position.
func Flatten(root *navtree.FolderNode, cfg ordering.Config) []docindex.Record {
	if root == nil {
		return nil
	}
	out := make([]docindex.Record, 0, root.DescendantCount)
	return appendFolder(out, root, cfg.Normalized())
}

func appendFolder(out []docindex.Record, n *navtree.FolderNode, cfg ordering.Config) []docindex.Record {
	out = append(out, n.SortedFiles(cfg)...)
	for _, child := range n.SortedChildren(cfg) {
		out = appendFolder(out, child, cfg)
	}
	return out
}

// Sequence is a flattened reading order with constant-time position lookup.
type Sequence struct {
	records  []docindex.Record
	position map[string]int
}

// New wraps an already flattened list.
func New(records []docindex.Record) *Sequence {
	pos := make(map[string]int, len(records))
	for i, r := range records {
		if _, dup := pos[r.URLPath]; !dup {
			pos[r.URLPath] = i
		}
	}
	return &Sequence{records: records, position: pos}
}

// Records returns the reading order. Callers must not modify it.
func (s *Sequence) Records() []docindex.Record { return s.records }

// Len is the number of documents in the sequence.
func (s *Sequence) Len() int { return len(s.records) }

// Lookup returns the record served at urlPath.
func (s *Sequence) Lookup(urlPath string) (docindex.Record, bool) {
	i, ok := s.position[urlPath]
	if !ok {
		return docindex.Record{}, false
	}
	return s.records[i], true
}

// Neighbors returns the documents immediately before and after urlPath.
// prev is nil for the first document and next is nil for the last. ok is
// false when urlPath is not in the sequence.
func (s *Sequence) Neighbors(urlPath string) (prev, next *docindex.Record, ok bool) {
	i, ok := s.position[urlPath]
	if !ok {
		return nil, nil, false
	}
	if i > 0 {
		p := s.records[i-1]
		prev = &p
	}
	if i < len(s.records)-1 {
		n := s.records[i+1]
		next = &n
	}
	return prev, next, true
}
