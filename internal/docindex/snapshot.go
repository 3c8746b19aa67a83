package docindex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

// SitePath is the well-known site-relative location of the snapshot JSON.
const SitePath = "/_mbr/site.json"

// Snapshot is the full, authoritative state of the document index: every
// record, the active sort configuration and the index filename.
type Snapshot struct {
	Files     []Record        `json:"files"`
	Sort      ordering.Config `json:"sort"`
	IndexFile string          `json:"index_file"`
}

// LoadError reports that the index source was unreachable or malformed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading document index from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// normalize fills defaults so consumers never see a blank index filename or
// an empty sort config.
func (s Snapshot) normalize() Snapshot {
	if s.IndexFile == "" {
		s.IndexFile = DefaultIndexFile
	}
	s.Sort = s.Sort.Normalized()
	return s
}

// Decode reads a snapshot from JSON.
func Decode(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if err := s.Sort.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return s.normalize(), nil
}

// Encode writes a snapshot as JSON.
func Encode(w io.Writer, s Snapshot) error {
	return json.NewEncoder(w).Encode(s.normalize())
}

// FetchSnapshot loads the snapshot published by a running server or a
// statically built site rooted at baseURL.
func FetchSnapshot(ctx context.Context, client *http.Client, baseURL string) (Snapshot, error) {
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimSuffix(baseURL, "/") + SitePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Snapshot{}, &LoadError{Source: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Snapshot{}, &LoadError{Source: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, &LoadError{Source: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	s, err := Decode(resp.Body)
	if err != nil {
		return Snapshot{}, &LoadError{Source: url, Err: err}
	}
	return s, nil
}
