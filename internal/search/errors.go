package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/staticindex"
)

// ErrIndexNotBuilt means the backend has no index to search yet.
var ErrIndexNotBuilt = errors.New("search index not built yet")

// QueryError is a failed query, tagged with the backend that failed and, for
// live queries, the HTTP status.
type QueryError struct {
	Mode   Mode
	Status int
	Err    error
}

func (e *QueryError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s search failed (HTTP %d): %v", e.Mode, e.Status, e.Err)
	}
	return fmt.Sprintf("%s search failed: %v", e.Mode, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsDiscarded reports whether err only signals that a query was cancelled or
// overtaken. Such errors never reach the user.
func IsDiscarded(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, staticindex.ErrSuperseded)
}
