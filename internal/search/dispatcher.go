package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"
)

// State is where an interactive query session stands.
type State int

const (
	Idle State = iota
	Debouncing
	InFlight
	Settled
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case InFlight:
		return "in-flight"
	case Settled:
		return "settled"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Backend is implemented by LiveBackend and StaticBackend.
type Backend interface {
	Search(ctx context.Context, q QueryContext) (*Response, error)
}

// View is what a presentation layer renders.
type View struct {
	Query        string
	Mode         Mode
	State        State
	Results      []Result
	TotalMatches int
	Duration     time.Duration
	Err          error
}

// Options configures a Dispatcher.
type Options struct {
	// Debounce delays live queries until typing pauses.
	Debounce time.Duration
	// MinQueryLen is the rune count below which no query is issued.
	MinQueryLen int
	// OnChange receives every visible state change, in order.
	OnChange func(View)
}

const (
	DefaultDebounce    = 150 * time.Millisecond
	DefaultMinQueryLen = 2
)

// Dispatcher routes queries to the backend for the current mode and
// guarantees that only the most recent query ever updates the view.
type Dispatcher struct {
	live    *LiveBackend
	static  *StaticBackend
	session *StaticSession
	opts    Options

	mu     sync.Mutex
	mode   Mode
	gen    uint64
	view   View
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool

	// pending is set while the query of generation gen has not been
	// delivered; changed is closed and replaced whenever it clears.
	pending bool
	changed chan struct{}

	seq       uint64
	notifyMu  sync.Mutex
	delivered uint64
}

// NewDispatcher creates a dispatcher starting in mode. Either backend may be
// nil if that mode is never used.
func NewDispatcher(mode Mode, live *LiveBackend, static *StaticBackend, opts Options) *Dispatcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinQueryLen <= 0 {
		opts.MinQueryLen = DefaultMinQueryLen
	}
	d := &Dispatcher{
		live:   live,
		static: static,
		opts:   opts,
		mode:    mode,
		view:    View{Mode: mode, State: Idle},
		changed: make(chan struct{}),
	}
	if static != nil {
		d.session = static.Session()
	}
	return d
}

// backend picks the backend for m. Interactive queries share this
// dispatcher's static session so they supersede each other; one-shot queries
// go to the backend directly.
func (d *Dispatcher) backend(m Mode, interactive bool) (Backend, error) {
	switch m {
	case ModeLive:
		if d.live == nil {
			return nil, errors.New("live search is not configured")
		}
		return d.live, nil
	case ModeStatic:
		if d.static == nil {
			return nil, errors.New("static search is not configured")
		}
		if interactive {
			return d.session, nil
		}
		return d.static, nil
	}
	return nil, fmt.Errorf("unknown execution mode %q", m)
}

// Search runs a single query to completion. An empty q.Mode uses the
// dispatcher's current mode. Queries shorter than MinQueryLen return an empty
// response without touching a backend.
func (d *Dispatcher) Search(ctx context.Context, q QueryContext) (*Response, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Mode == "" {
		q.Mode = d.Mode()
	}
	q = q.Normalized()
	if utf8.RuneCountInString(q.RawQuery) < d.opts.MinQueryLen {
		return &Response{}, nil
	}
	b, err := d.backend(q.Mode, false)
	if err != nil {
		return nil, err
	}
	return b.Search(ctx, q)
}

// Mode returns the current execution mode.
func (d *Dispatcher) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// View returns the current view.
func (d *Dispatcher) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

// Type records a new query from interactive input. Any pending or in-flight
// query is abandoned. Live queries wait for the debounce interval; static
// queries go straight to the library, which debounces internally.
func (d *Dispatcher) Type(q QueryContext) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.abandonLocked()
	gen := d.gen

	q.Mode = d.mode
	q = q.Normalized()
	d.view.Query = q.RawQuery
	d.view.Err = nil

	if utf8.RuneCountInString(q.RawQuery) < d.opts.MinQueryLen {
		d.view.State = Idle
		d.view.Results = nil
		d.view.TotalMatches = 0
		d.view.Duration = 0
		d.clearPendingLocked()
		v, seq := d.snapshotLocked()
		d.mu.Unlock()
		d.emit(v, seq)
		return
	}

	d.pending = true
	if q.Mode == ModeLive {
		d.view.State = Debouncing
		d.timer = time.AfterFunc(d.opts.Debounce, func() { d.dispatch(gen, q) })
		v, seq := d.snapshotLocked()
		d.mu.Unlock()
		d.emit(v, seq)
		return
	}
	d.mu.Unlock()
	go d.dispatch(gen, q)
}

// SetMode switches backends. Outstanding work for the old mode is cancelled
// and its results will never be shown.
func (d *Dispatcher) SetMode(m Mode) {
	d.mu.Lock()
	if d.closed || d.mode == m {
		d.mu.Unlock()
		return
	}
	pending := d.view.State == Debouncing || d.view.State == InFlight
	d.abandonLocked()
	d.clearPendingLocked()
	d.mode = m
	d.view = View{Query: d.view.Query, Mode: m, State: Idle}
	if pending {
		d.view.State = Cancelled
	}
	v, seq := d.snapshotLocked()
	d.mu.Unlock()
	d.emit(v, seq)
}

// Close cancels outstanding work. Later calls to Type are ignored.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.abandonLocked()
	d.clearPendingLocked()
	d.closed = true
}

// Wait blocks until the latest query has been delivered to OnChange, or was
// abandoned, and returns the view at that point.
func (d *Dispatcher) Wait(ctx context.Context) (View, error) {
	for {
		d.mu.Lock()
		if !d.pending {
			v := d.view
			d.mu.Unlock()
			return v, nil
		}
		ch := d.changed
		d.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return d.View(), ctx.Err()
		}
	}
}

func (d *Dispatcher) clearPendingLocked() {
	if d.pending {
		d.pending = false
		close(d.changed)
		d.changed = make(chan struct{})
	}
}

// settle clears pending once gen's final view has been emitted, unless a
// newer query took over meanwhile.
func (d *Dispatcher) settle(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen == d.gen {
		d.clearPendingLocked()
	}
}

// abandonLocked invalidates every earlier dispatch.
func (d *Dispatcher) abandonLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Dispatcher) dispatch(gen uint64, q QueryContext) {
	d.mu.Lock()
	if gen != d.gen || d.closed {
		d.mu.Unlock()
		return
	}
	b, err := d.backend(q.Mode, true)
	if err != nil {
		d.view.State = Failed
		d.view.Err = err
		v, seq := d.snapshotLocked()
		d.mu.Unlock()
		d.emit(v, seq)
		d.settle(gen)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.timer = nil
	d.view.State = InFlight
	v, seq := d.snapshotLocked()
	d.mu.Unlock()
	d.emit(v, seq)

	resp, err := b.Search(ctx, q)

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		cancel()
		return
	}
	d.cancel = nil
	cancel()
	switch {
	case err != nil && IsDiscarded(err):
		// Still the current query, so nothing newer will settle the view.
		d.view.State = Cancelled
	case err != nil:
		d.view.State = Failed
		d.view.Err = err
	default:
		d.view.State = Settled
		d.view.Results = resp.Results
		d.view.TotalMatches = resp.TotalMatches
		d.view.Duration = resp.Duration
	}
	v, seq = d.snapshotLocked()
	d.mu.Unlock()
	d.emit(v, seq)
	d.settle(gen)
}

func (d *Dispatcher) snapshotLocked() (View, uint64) {
	d.seq++
	return d.view, d.seq
}

// emit delivers v unless a newer view was already delivered.
func (d *Dispatcher) emit(v View, seq uint64) {
	if d.opts.OnChange == nil {
		return
	}
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	if seq <= d.delivered {
		return
	}
	d.delivered = seq
	d.opts.OnChange(v)
}
