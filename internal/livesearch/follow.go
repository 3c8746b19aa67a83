package livesearch

import (
	"context"
	"sync"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/render"
)

// AfterRebuild observes each rebuild attempt. err is the load failure for an
// unavailable index, or the rebuild error; docs is set only on success.
type AfterRebuild func(st docindex.State, docs []render.SearchDocument, err error)

// Follow keeps the engine in step with x: every published snapshot is
// collected from rootDir and indexed. A failed state leaves the last
// committed index searchable. States may be published from several
// goroutines; one older than the last handled is ignored.
func (e *Engine) Follow(x *docindex.Index, rootDir string, otherGlobs []string, after AfterRebuild) (cancel func()) {
	var (
		mu      sync.Mutex
		lastGen uint64
	)
	return x.Subscribe(func(st docindex.State) {
		mu.Lock()
		defer mu.Unlock()
		if st.Generation <= lastGen {
			return
		}
		lastGen = st.Generation

		if !st.Ready() {
			if after != nil {
				after(st, nil, st.Err)
			}
			return
		}

		docs, err := render.CollectDocuments(rootDir, st.Snapshot, otherGlobs)
		if err == nil {
			err = e.Rebuild(context.Background(), docs, st.Generation)
		}
		if after != nil {
			if err != nil {
				docs = nil
			}
			after(st, docs, err)
		}
	})
}
