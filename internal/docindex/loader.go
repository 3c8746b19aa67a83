package docindex

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

// DefaultExcludes are directory names skipped during traversal.
var DefaultExcludes = []string{
	".git",
	"node_modules",
	"vendor",
	".mbr",
	"_mbr",
	".venv",
	".idea",
	".vscode",
	".DS_Store",
}

// LoaderConfig controls how a corpus is read from disk.
type LoaderConfig struct {
	RootDir   string          // Corpus root.
	Include   []string        // Glob patterns; empty means "**/*.md".
	Exclude   []string        // Glob patterns excluded after Include.
	IndexFile string          // Folder index document name.
	Sort      ordering.Config // Carried into the snapshot unchanged.
}

// Load walks the corpus and returns a snapshot of every markdown document.
// Files with unreadable frontmatter are kept with no metadata rather than
// failing the whole load.
func Load(cfg LoaderConfig) (Snapshot, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return Snapshot{}, &LoadError{Source: cfg.RootDir, Err: err}
	}
	if info, err := os.Stat(root); err != nil {
		return Snapshot{}, &LoadError{Source: root, Err: err}
	} else if !info.IsDir() {
		return Snapshot{}, &LoadError{Source: root, Err: fmt.Errorf("not a directory")}
	}

	indexFile := cfg.IndexFile
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	include := cfg.Include
	if len(include) == 0 {
		include = []string{"**/*.md"}
	}

	var records []Record
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}
		if d.IsDir() {
			if p != root && IsExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !MatchesAny(rel, include) || MatchesAny(rel, cfg.Exclude) {
			return nil
		}

		rec, err := readRecord(root, rel, indexFile)
		if err != nil {
			log.Printf("docindex: %s: %v", rel, err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return Snapshot{}, &LoadError{Source: root, Err: err}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].RawPath < records[j].RawPath })

	return Snapshot{
		Files:     records,
		Sort:      cfg.Sort.Normalized(),
		IndexFile: indexFile,
	}, nil
}

// readRecord builds a Record for one file. The record is returned even when
// err is non-nil so the document stays navigable.
func readRecord(root, rel, indexFile string) (Record, error) {
	rec := Record{
		URLPath: URLPathFor(rel, indexFile),
		RawPath: rel,
	}
	abs := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		return rec, err
	}
	// Birth time is not portable; modification time stands in for both.
	rec.Modified = info.ModTime().Unix()
	rec.Created = rec.Modified

	content, err := os.ReadFile(abs)
	if err != nil {
		return rec, err
	}
	fm, _, err := SplitFrontmatter(content)
	if err != nil {
		return rec, err
	}
	rec.Frontmatter = fm
	return rec, nil
}

// ReadBody returns the markdown body of rec with frontmatter removed.
func ReadBody(rootDir string, rec Record) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(rootDir, filepath.FromSlash(rec.RawPath)))
	if err != nil {
		return nil, err
	}
	// A malformed header still yields the body after it.
	_, body, _ := SplitFrontmatter(content)
	return body, nil
}

// IsExcludedDir reports whether a directory name is in DefaultExcludes.
func IsExcludedDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// IsHiddenPath reports whether any segment of a slash-separated relative
// path is dot-prefixed or an excluded directory. Such files are never served
// or published.
func IsHiddenPath(relPath string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if strings.HasPrefix(seg, ".") || IsExcludedDir(seg) {
			return true
		}
	}
	return false
}

// MatchesAny checks relPath against doublestar patterns, also trying the
// base name so "*.draft.md" matches at any depth.
func MatchesAny(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, filepath.Base(relPath)); err == nil && matched {
			return true
		}
	}
	return false
}

// Refresh reloads the corpus into x. A failed load marks the index
// unavailable and is returned so callers can log it.
func Refresh(x *Index, cfg LoaderConfig) error {
	s, err := Load(cfg)
	if err != nil {
		x.Fail(err)
		return err
	}
	x.Replace(s)
	return nil
}
