// Package staticindex builds and queries the prebuilt search artifact that
// ships with a published site. The artifact is a gzip-compressed JSON file
// holding per-document metadata and term postings stored as roaring bitmaps,
// so a published site can be searched without a server.
package staticindex

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring"
)

const (
	// ArtifactPath is where a published site exposes the artifact.
	ArtifactPath = "/_mbr/search-index.json.gz"

	// FormatVersion is bumped whenever the artifact layout changes.
	FormatVersion = 1

	maxStoredBody = 16 * 1024
)

// Document is the searchable view of one file.
type Document struct {
	URLPath     string `json:"url_path"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"`
	FileKind    string `json:"file_kind"`
	Body        string `json:"body,omitempty"`
	Length      int    `json:"length"`
}

// Artifact is the serialized index.
type Artifact struct {
	Version int        `json:"version"`
	Docs    []Document `json:"docs"`
	// Terms maps a token to the serialized bitmap of documents containing it
	// anywhere. TitleTerms covers title tokens only.
	Terms      map[string][]byte `json:"terms"`
	TitleTerms map[string][]byte `json:"title_terms"`
}

// Build tokenizes docs and assembles an artifact. Document ids are positions
// in docs.
func Build(docs []Document) (*Artifact, error) {
	terms := make(map[string]*roaring.Bitmap)
	titles := make(map[string]*roaring.Bitmap)
	add := func(m map[string]*roaring.Bitmap, tok string, id uint32) {
		bm, ok := m[tok]
		if !ok {
			bm = roaring.New()
			m[tok] = bm
		}
		bm.Add(id)
	}

	stored := make([]Document, len(docs))
	for i, d := range docs {
		id := uint32(i)
		all := Tokenize(d.Title + " " + d.Description + " " + d.Tags + " " + d.Body)
		for _, tok := range all {
			add(terms, tok, id)
		}
		for _, tok := range Tokenize(d.Title) {
			add(titles, tok, id)
		}
		d.Length = len(all)
		d.Body = truncate(d.Body, maxStoredBody)
		stored[i] = d
	}

	art := &Artifact{
		Version:    FormatVersion,
		Docs:       stored,
		Terms:      make(map[string][]byte, len(terms)),
		TitleTerms: make(map[string][]byte, len(titles)),
	}
	for tok, bm := range terms {
		bm.RunOptimize()
		b, err := bm.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("serializing postings for %q: %w", tok, err)
		}
		art.Terms[tok] = b
	}
	for tok, bm := range titles {
		bm.RunOptimize()
		b, err := bm.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("serializing title postings for %q: %w", tok, err)
		}
		art.TitleTerms[tok] = b
	}
	return art, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// Encode writes the artifact as gzip-compressed JSON.
func (a *Artifact) Encode(w io.Writer) error {
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		zw.Close()
		return fmt.Errorf("encoding search artifact: %w", err)
	}
	return zw.Close()
}

// WriteFile writes the artifact to path, creating parent directories.
func (a *Artifact) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing search artifact: %w", err)
	}
	return nil
}

// Decode reads an artifact produced by Encode.
func Decode(r io.Reader) (*Artifact, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening search artifact: %w", err)
	}
	defer zr.Close()

	var a Artifact
	if err := json.NewDecoder(zr).Decode(&a); err != nil {
		return nil, fmt.Errorf("decoding search artifact: %w", err)
	}
	if a.Version != FormatVersion {
		return nil, fmt.Errorf("search artifact version %d, want %d", a.Version, FormatVersion)
	}
	return &a, nil
}
