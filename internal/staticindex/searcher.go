package staticindex

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrSuperseded is returned to a caller whose query was overtaken by a newer
// one during the debounce window. It is not a failure.
var ErrSuperseded = errors.New("staticindex: query superseded")

// Searcher serializes queries against an Index and applies a short debounce
// window: a query only runs if no newer query arrived while it waited.
type Searcher struct {
	ix     *Index
	window time.Duration
	gen    atomic.Uint64
	mu     sync.Mutex
}

// NewSearcher wraps an initialized index. A zero window disables debouncing.
func NewSearcher(ix *Index, window time.Duration) *Searcher {
	return &Searcher{ix: ix, window: window}
}

// Index returns the wrapped index.
func (s *Searcher) Index() *Index { return s.ix }

// Search runs query unless a later call to Search supersedes it first.
func (s *Searcher) Search(ctx context.Context, query string) ([]Handle, error) {
	gen := s.gen.Add(1)

	if s.window > 0 {
		t := time.NewTimer(s.window)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen.Load() != gen {
		return nil, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.ix.Search(query), nil
}
