// Package search runs queries against either the live server endpoint or the
// static artifact shipped with a published site, and keeps an interactive
// query session consistent while the user types.
package search

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the execution backend.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeStatic Mode = "static"
)

// Scope restricts which parts of a document are matched.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeMetadata Scope = "metadata"
	ScopeContent  Scope = "content"
)

// FolderScope restricts results to a folder subtree.
type FolderScope string

const (
	FolderEverywhere FolderScope = "everywhere"
	FolderCurrent    FolderScope = "current"
)

// Filetype restricts results by kind.
type Filetype string

const (
	FiletypeMarkdown Filetype = "markdown"
	FiletypeAll      Filetype = "all"
)

// FileKind labels a result.
type FileKind string

const (
	KindMarkdown FileKind = "markdown"
	KindOther    FileKind = "other"
)

// DefaultLimit caps results when the caller does not.
const DefaultLimit = 50

// QueryContext is one query with its filters.
type QueryContext struct {
	RawQuery    string
	Scope       Scope
	FolderScope FolderScope
	// Folder is the url path of the current folder, used when FolderScope is
	// FolderCurrent.
	Folder   string
	Filetype Filetype
	Mode     Mode
	Limit    int
}

// ScopeControlsVisible reports whether scope and filter controls apply. The
// static backend searches everything, so they are hidden there.
func (q QueryContext) ScopeControlsVisible() bool {
	return q.Mode != ModeStatic
}

// Normalized fills defaults and trims the query.
func (q QueryContext) Normalized() QueryContext {
	q.RawQuery = strings.TrimSpace(q.RawQuery)
	if q.Scope == "" {
		q.Scope = ScopeAll
	}
	if q.FolderScope == "" {
		q.FolderScope = FolderEverywhere
	}
	if q.Filetype == "" {
		q.Filetype = FiletypeAll
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.FolderScope == FolderCurrent {
		q.Folder = normalizeFolder(q.Folder)
	}
	return q
}

func normalizeFolder(f string) string {
	f = strings.Trim(f, "/")
	if f == "" {
		return "/"
	}
	return "/" + f + "/"
}

// Validate rejects unknown enum values.
func (q QueryContext) Validate() error {
	switch q.Scope {
	case "", ScopeAll, ScopeMetadata, ScopeContent:
	default:
		return fmt.Errorf("unknown scope %q", q.Scope)
	}
	switch q.FolderScope {
	case "", FolderEverywhere, FolderCurrent:
	default:
		return fmt.Errorf("unknown folder scope %q", q.FolderScope)
	}
	switch q.Filetype {
	case "", FiletypeMarkdown, FiletypeAll:
	default:
		return fmt.Errorf("unknown filetype %q", q.Filetype)
	}
	switch q.Mode {
	case "", ModeLive, ModeStatic:
	default:
		return fmt.Errorf("unknown execution mode %q", q.Mode)
	}
	return nil
}

// Result is one hit, identical in shape for both backends.
type Result struct {
	URLPath        string   `json:"url_path"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Tags           string   `json:"tags,omitempty"`
	Score          float64  `json:"score"`
	FileKind       FileKind `json:"filetype"`
	IsContentMatch bool     `json:"is_content_match"`
	// SnippetPlain is the excerpt as text. SnippetMarked is the same excerpt
	// as escaped HTML with matched terms wrapped in <mark>.
	SnippetPlain  string `json:"snippet_plain,omitempty"`
	SnippetMarked string `json:"snippet_marked,omitempty"`
}

// Response is what a completed query yields.
type Response struct {
	Results      []Result
	TotalMatches int
	Duration     time.Duration
}
