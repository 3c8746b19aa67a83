// Package docindex holds the flat document collection that navigation and
// search are derived from. A loaded set is immutable; refreshes replace it.
package docindex

import (
	"path"
	"strings"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

// DefaultIndexFile is the file whose metadata describes its folder.
const DefaultIndexFile = "index.md"

// Frontmatter is the decoded YAML header of a document. Values are untyped
// here; the ordering package converts them to concrete forms.
type Frontmatter map[string]any

// Record is one document in the corpus.
type Record struct {
	URLPath     string      `json:"url_path"`
	RawPath     string      `json:"raw_path"`
	Created     int64       `json:"created"`
	Modified    int64       `json:"modified"`
	Frontmatter Frontmatter `json:"frontmatter,omitempty"`
}

var _ ordering.Entity = Record{}

// Filename is the last segment of the source path.
func (r Record) Filename() string {
	return path.Base(strings.TrimSuffix(r.RawPath, "/"))
}

// Stem is the filename without its extension.
func (r Record) Stem() string {
	name := r.Filename()
	return strings.TrimSuffix(name, path.Ext(name))
}

// DerivedName implements ordering.Entity.
func (r Record) DerivedName() string { return r.Stem() }

// Meta implements ordering.Entity.
func (r Record) Meta() map[string]any { return r.Frontmatter }

// Timestamps implements ordering.Entity.
func (r Record) Timestamps() (int64, int64, bool) { return r.Created, r.Modified, true }

// IsIndex reports whether the record is its folder's index document.
func (r Record) IsIndex(indexFile string) bool {
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	return r.Filename() == indexFile
}

// Title is the frontmatter title, else the filename stem.
func (r Record) Title() string {
	title, _ := ordering.ResolveField(r, ordering.FieldTitle)
	return title
}

// Description is the frontmatter description, if any.
func (r Record) Description() string {
	v, _ := ordering.ResolveField(r, "description")
	return v
}

// TagsRaw is the frontmatter tags value joined with commas.
func (r Record) TagsRaw() string {
	v, _ := ordering.ResolveField(r, "tags")
	return v
}

// URLPathFor derives the canonical URL path from a slash-separated source
// path: "index.md" -> "/", "a/index.md" -> "/a/", "a/c.md" -> "/a/c/".
func URLPathFor(rawPath, indexFile string) string {
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	rawPath = strings.Trim(path.Clean("/"+rawPath), "/")
	if rawPath == "" || rawPath == "." {
		return "/"
	}
	dir, file := path.Split(rawPath)
	if file == indexFile {
		if dir == "" {
			return "/"
		}
		return "/" + dir
	}
	stem := strings.TrimSuffix(file, path.Ext(file))
	return "/" + dir + stem + "/"
}

// FolderOf returns the folder URL path that contains urlPath.
// "/a/c/" -> "/a/", "/" -> "/".
func FolderOf(urlPath string) string {
	trimmed := strings.Trim(urlPath, "/")
	if trimmed == "" {
		return "/"
	}
	dir := path.Dir(trimmed)
	if dir == "." {
		return "/"
	}
	return "/" + dir + "/"
}
