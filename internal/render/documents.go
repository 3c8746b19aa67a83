package render

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"unicode/utf8"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
)

// Kinds of searchable documents.
const (
	KindMarkdown = "markdown"
	KindOther    = "other"
)

const maxOtherFileSize = 1 << 20

// SearchDocument is the text both search backends index for one file.
type SearchDocument struct {
	URLPath     string
	Title       string
	Description string
	Tags        string
	Body        string
	Kind        string
}

// CollectDocuments reads the body of every markdown record in snap and,
// when otherGlobs is non-empty, every matching non-markdown text file under
// rootDir. Unreadable files are logged and skipped.
func CollectDocuments(rootDir string, snap docindex.Snapshot, otherGlobs []string) ([]SearchDocument, error) {
	docs := make([]SearchDocument, 0, len(snap.Files))
	for _, rec := range snap.Files {
		src, err := docindex.ReadBody(rootDir, rec)
		if err != nil {
			log.Printf("render: skipping %s: %v", rec.RawPath, err)
			continue
		}
		docs = append(docs, SearchDocument{
			URLPath:     rec.URLPath,
			Title:       rec.Title(),
			Description: rec.Description(),
			Tags:        rec.TagsRaw(),
			Body:        PlainText(src),
			Kind:        KindMarkdown,
		})
	}

	if len(otherGlobs) == 0 {
		return docs, nil
	}
	err := filepath.WalkDir(rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(rootDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && docindex.IsExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if path.Ext(rel) == ".md" || !docindex.MatchesAny(rel, otherGlobs) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxOtherFileSize {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			log.Printf("render: skipping %s: %v", rel, err)
			return nil
		}
		if !utf8.Valid(data) {
			return nil
		}
		docs = append(docs, SearchDocument{
			URLPath: "/" + rel,
			Title:   path.Base(rel),
			Body:    string(data),
			Kind:    KindOther,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting other files: %w", err)
	}
	return docs, nil
}
