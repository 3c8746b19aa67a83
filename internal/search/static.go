package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/staticindex"
)

// ArtifactSource opens the static search artifact.
type ArtifactSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads the artifact from disk.
type FileSource string

func (f FileSource) Open(context.Context) (io.ReadCloser, error) {
	r, err := os.Open(string(f))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrIndexNotBuilt
	}
	return r, err
}

// HTTPSource fetches the artifact from a published site.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (h HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrIndexNotBuilt
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: HTTP %d", h.URL, resp.StatusCode)
	}
	return resp.Body, nil
}

// ArtifactURL is the artifact location on a published site.
func ArtifactURL(siteURL string) string {
	return strings.TrimSuffix(siteURL, "/") + staticindex.ArtifactPath
}

// StaticBackend searches the prebuilt artifact in-process. The artifact is
// loaded on first use; concurrent first queries share one load, and a failed
// load is retried by the next query. The loaded index is read-only and shared.
// Search on the backend itself is a one-shot query with no debounce; an
// interactive caller takes a Session, which owns its own debounce state.
type StaticBackend struct {
	src    ArtifactSource
	opts   staticindex.Options
	window time.Duration

	group singleflight.Group
	mu    sync.Mutex
	index *staticindex.Index
}

// NewStaticBackend creates a backend over src. window is the library's
// internal debounce, applied per Session.
func NewStaticBackend(src ArtifactSource, opts staticindex.Options, window time.Duration) *StaticBackend {
	return &StaticBackend{src: src, opts: opts, window: window}
}

func (b *StaticBackend) load(ctx context.Context) (*staticindex.Index, error) {
	b.mu.Lock()
	ix := b.index
	b.mu.Unlock()
	if ix != nil {
		return ix, nil
	}

	ch := b.group.DoChan("load", func() (any, error) {
		b.mu.Lock()
		loaded := b.index
		b.mu.Unlock()
		if loaded != nil {
			return loaded, nil
		}

		lctx := context.WithoutCancel(ctx)
		rc, err := b.src.Open(lctx)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		art, err := staticindex.Decode(rc)
		if err != nil {
			return nil, err
		}
		ix := staticindex.New(art)
		if err := ix.Init(); err != nil {
			return nil, err
		}
		ix.Options(b.opts)

		b.mu.Lock()
		b.index = ix
		b.mu.Unlock()
		return ix, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*staticindex.Index), nil
	}
}

// Search runs q against the artifact once. Concurrent callers never affect
// each other. Scope and filters are ignored.
func (b *StaticBackend) Search(ctx context.Context, q QueryContext) (*Response, error) {
	q = q.Normalized()
	start := time.Now()

	ix, err := b.load(ctx)
	if err != nil {
		return nil, staticError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return staticResponse(ix.Search(q.RawQuery), q, start), nil
}

// Session returns a search session over the shared artifact. Within one
// session a query is dropped if a newer one arrives during the debounce
// window; sessions never supersede each other.
func (b *StaticBackend) Session() *StaticSession {
	return &StaticSession{backend: b}
}

// StaticSession is one interactive caller's view of a StaticBackend.
type StaticSession struct {
	backend *StaticBackend

	mu       sync.Mutex
	searcher *staticindex.Searcher
}

// Search runs q through this session's debounce. A query overtaken by a
// later one in the same session fails with staticindex.ErrSuperseded.
func (s *StaticSession) Search(ctx context.Context, q QueryContext) (*Response, error) {
	q = q.Normalized()
	start := time.Now()

	ix, err := s.backend.load(ctx)
	if err != nil {
		return nil, staticError(err)
	}

	s.mu.Lock()
	if s.searcher == nil {
		s.searcher = staticindex.NewSearcher(ix, s.backend.window)
	}
	searcher := s.searcher
	s.mu.Unlock()

	hits, err := searcher.Search(ctx, q.RawQuery)
	if err != nil {
		return nil, staticError(err)
	}
	return staticResponse(hits, q, start), nil
}

func staticError(err error) error {
	if IsDiscarded(err) {
		return err
	}
	return &QueryError{Mode: ModeStatic, Err: err}
}

func staticResponse(hits []staticindex.Handle, q QueryContext, start time.Time) *Response {
	n := len(hits)
	if n > q.Limit {
		n = q.Limit
	}
	results := make([]Result, n)
	for rank := 0; rank < n; rank++ {
		d := hits[rank].Data()
		kind := KindMarkdown
		if d.FileKind == string(KindOther) {
			kind = KindOther
		}
		results[rank] = Result{
			URLPath:        d.URLPath,
			Title:          d.Title,
			Description:    d.Description,
			Tags:           d.Tags,
			Score:          1 / float64(rank+1),
			FileKind:       kind,
			IsContentMatch: d.ContentMatch,
			SnippetPlain:   d.PlainExcerpt,
			SnippetMarked:  d.Excerpt,
		}
	}
	return &Response{Results: results, TotalMatches: len(hits), Duration: time.Since(start)}
}
