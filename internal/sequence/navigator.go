package sequence

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/navtree"
	"github.com/zmre/mbr-markdown-browser-sub000/internal/ordering"
)

// ErrUnavailable is returned while no document index has loaded, or after
// the last load failed.
var ErrUnavailable = errors.New("navigation unavailable")

// Navigation is everything derived from one snapshot. It is never modified
// after Derive returns.
type Navigation struct {
	Tree       *navtree.FolderNode
	Sequence   *Sequence
	Sort       ordering.Config
	IndexFile  string
	Generation uint64
}

// Derive builds the tree and reading order for a snapshot.
func Derive(s docindex.Snapshot, generation uint64) *Navigation {
	tree := navtree.Build(s.Files, s.IndexFile)
	return &Navigation{
		Tree:       tree,
		Sequence:   New(Flatten(tree, s.Sort)),
		Sort:       s.Sort.Normalized(),
		IndexFile:  s.IndexFile,
		Generation: generation,
	}
}

// Navigator keeps the current Navigation in sync with a docindex.Index by
// rebuilding and swapping it on every published state.
type Navigator struct {
	current atomic.Pointer[Navigation]
	lastErr atomic.Pointer[error]
	cancel  func()

	mu      sync.Mutex
	lastGen uint64
}

// NewNavigator subscribes to x. Because Subscribe replays, the navigator is
// populated immediately if x already holds a snapshot.
func NewNavigator(x *docindex.Index) *Navigator {
	n := &Navigator{}
	n.cancel = x.Subscribe(n.apply)
	return n
}

// apply ignores a state older than the last one applied; refreshes may
// publish from several goroutines.
func (n *Navigator) apply(st docindex.State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if st.Generation <= n.lastGen {
		return
	}
	n.lastGen = st.Generation

	if st.Err != nil {
		err := st.Err
		n.lastErr.Store(&err)
		n.current.Store(nil)
		return
	}
	n.lastErr.Store(nil)
	n.current.Store(Derive(st.Snapshot, st.Generation))
}

// Current returns the latest navigation or ErrUnavailable wrapping the load
// failure, if any.
func (n *Navigator) Current() (*Navigation, error) {
	if nav := n.current.Load(); nav != nil {
		return nav, nil
	}
	if errp := n.lastErr.Load(); errp != nil {
		return nil, errors.Join(ErrUnavailable, *errp)
	}
	return nil, ErrUnavailable
}

// Close stops following the index.
func (n *Navigator) Close() {
	if n.cancel != nil {
		n.cancel()
	}
}
