package docindex

import (
	"sync"

	"github.com/google/uuid"
)

// State is what subscribers observe: either a loaded snapshot or the error
// that made the index unavailable.
type State struct {
	Snapshot   Snapshot
	Err        error
	Generation uint64
}

// Ready reports whether a snapshot has been loaded successfully.
func (s State) Ready() bool { return s.Err == nil && s.Generation > 0 }

// Index is the per-session observer over the document set. Construct one per
// loaded session and pass it explicitly to its consumers.
type Index struct {
	mu    sync.Mutex
	state State
	set   bool
	subs  map[uuid.UUID]func(State)
	order []uuid.UUID
}

// NewIndex returns an empty index with no snapshot.
func NewIndex() *Index {
	return &Index{subs: make(map[uuid.UUID]func(State))}
}

// Subscribe registers cb. If the index already holds a state, cb is invoked
// with it before Subscribe returns. The returned function unsubscribes.
func (x *Index) Subscribe(cb func(State)) (cancel func()) {
	id := uuid.New()

	x.mu.Lock()
	x.subs[id] = cb
	x.order = append(x.order, id)
	current, set := x.state, x.set
	x.mu.Unlock()

	if set {
		cb(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			x.mu.Lock()
			defer x.mu.Unlock()
			delete(x.subs, id)
			for i, o := range x.order {
				if o == id {
					x.order = append(x.order[:i], x.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Replace swaps in a new snapshot and notifies every subscriber.
func (x *Index) Replace(s Snapshot) {
	x.publish(State{Snapshot: s.normalize()})
}

// Fail marks the index unavailable. Subscribers receive the error; the last
// good snapshot is discarded so nothing renders stale navigation.
func (x *Index) Fail(err error) {
	x.publish(State{Err: err})
}

// Current returns the latest state and whether any has been published.
func (x *Index) Current() (State, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state, x.set
}

func (x *Index) publish(st State) {
	x.mu.Lock()
	st.Generation = x.state.Generation + 1
	x.state = st
	x.set = true
	cbs := make([]func(State), 0, len(x.order))
	for _, id := range x.order {
		cbs = append(cbs, x.subs[id])
	}
	x.mu.Unlock()

	// Callbacks run outside the lock so they may call Current or Subscribe.
	for _, cb := range cbs {
		cb(st)
	}
}
