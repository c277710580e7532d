// Package live is the viewer engine: it routes feed events into cached
// session views, buffers hidden sessions, and resyncs views from the
// source of truth when their state can no longer be trusted.
//
// All engine state is owned by one goroutine. Run is that goroutine in
// production; tests may instead call the Handle methods directly, as long as
// they do so from a single goroutine.
package live

import (
	"context"
	"time"

	"github.com/wethinkt/thinkt-live/internal/source"
	"github.com/wethinkt/thinkt-live/internal/stream"
	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/view"
)

const (
	DefaultBatchWindow       = 16 * time.Millisecond
	DefaultDirectoryDebounce = 250 * time.Millisecond
)

// Options configure a Controller. Zero values use the defaults.
type Options struct {
	Capacity   int
	BufferSize int
	// BatchWindow coalesces feed updates into one apply pass. Negative
	// disables batching.
	BatchWindow       time.Duration
	DirectoryDebounce time.Duration
	Hooks             view.HookFactory
	Listener          Listener
}

// Listener receives engine notifications on the owning goroutine. Any
// field may be nil.
type Listener struct {
	// OnStatus reports feed connectivity changes.
	OnStatus func(status stream.Status, err error)
	// OnActivate reports the view that just became active and whether a
	// resync was started for it.
	OnActivate func(key string, v *view.View, resyncing bool)
	// OnResync reports a committed (err == nil) or failed resync.
	OnResync func(scope string, err error)
	// OnDirectory delivers the debounced session directory.
	OnDirectory func(sessions []transcript.SessionSummary)
	// OnFlush is called after a batch of events has been applied.
	OnFlush func()
}

// Route is where HandleEvent sent an event for its own session.
type Route int

const (
	RouteApplied Route = iota
	RouteBuffered
	RoutePending
	RouteDropped
)

func (r Route) String() string {
	switch r {
	case RouteApplied:
		return "applied"
	case RouteBuffered:
		return "buffered"
	case RoutePending:
		return "pending"
	default:
		return "dropped"
	}
}

// Controller owns the view cache, the hidden-session buffers, the pending
// queue and the session directory.
type Controller struct {
	fetcher source.Fetcher
	opts    Options
	cache   *view.Cache

	// ctx is set once in New and never reassigned; request posters on
	// other goroutines select on it.
	ctx    context.Context
	cancel context.CancelFunc

	pending   []pendingEvent
	inflight  map[string]*resyncOp
	lastToken uint64
	failures  map[string]error

	summaries map[string]*transcript.SessionSummary
	dirDirty  bool

	connected      bool
	disconnectSeen bool

	results    chan ResyncResult
	dirResults chan DirectoryResult
	requests   chan request
	disposed   bool
}

// New creates a controller reading history from fetcher.
func New(fetcher source.Fetcher, opts Options) *Controller {
	if opts.BatchWindow < 0 {
		opts.BatchWindow = 0
	} else if opts.BatchWindow == 0 {
		opts.BatchWindow = DefaultBatchWindow
	}
	if opts.DirectoryDebounce <= 0 {
		opts.DirectoryDebounce = DefaultDirectoryDebounce
	}
	cacheOpts := []view.CacheOption{view.WithBufferSize(opts.BufferSize)}
	if opts.Hooks != nil {
		cacheOpts = append(cacheOpts, view.WithHookFactory(opts.Hooks))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		fetcher:    fetcher,
		opts:       opts,
		cache:      view.NewCache(opts.Capacity, cacheOpts...),
		ctx:        ctx,
		cancel:     cancel,
		inflight:   make(map[string]*resyncOp),
		failures:   make(map[string]error),
		summaries:  make(map[string]*transcript.SessionSummary),
		results:    make(chan ResyncResult, 16),
		dirResults: make(chan DirectoryResult, 4),
		requests:   make(chan request, 16),
	}
}

// Init ties the controller's lifetime to ctx, loads the session directory
// and activates initial (transcript.AllSessions when empty), which runs the
// initial resync.
func (c *Controller) Init(ctx context.Context, initial string) view.ActivateResult {
	context.AfterFunc(ctx, c.cancel)
	if initial == "" {
		initial = transcript.AllSessions
	}
	c.RefreshDirectory()
	return c.Activate(initial)
}

// Dispose cancels in-flight fetches and releases every view.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.cancel()
	for scope, op := range c.inflight {
		op.cancel()
		delete(c.inflight, scope)
	}
	c.pending = nil
	c.cache.Clear()
	cachedViews.Set(0)
	pendingEvents.Set(0)
}

// Active returns the active session key.
func (c *Controller) Active() string { return c.cache.Active() }

// View returns the cached view of key.
func (c *Controller) View(key string) (*view.View, bool) { return c.cache.Get(key) }

// Cache exposes the view cache for inspection.
func (c *Controller) Cache() *view.Cache { return c.cache }

// Pending returns the number of deferred events.
func (c *Controller) Pending() int { return len(c.pending) }

// Resyncing reports whether any resync is in flight.
func (c *Controller) Resyncing() bool { return len(c.inflight) > 0 }

// InFlight reports whether scope has a resync in flight.
func (c *Controller) InFlight(scope string) bool {
	_, ok := c.inflight[scope]
	return ok
}

// LastError returns the error of the last failed resync of scope, cleared
// when a later resync commits.
func (c *Controller) LastError(scope string) error { return c.failures[scope] }

// Connected reports the last feed status seen.
func (c *Controller) Connected() bool { return c.connected }

// Activate switches the active view to key. A cold view, a stale buffer or
// the aggregate key resyncs; otherwise the buffered events are replayed.
func (c *Controller) Activate(key string) view.ActivateResult {
	res := c.cache.Activate(key)
	for range res.Evicted {
		viewEvictionsTotal.Inc()
	}
	cachedViews.Set(float64(c.cache.Len()))
	resync := res.NeedsRefresh || res.Stale || key == transcript.AllSessions
	if c.opts.Listener.OnActivate != nil {
		c.opts.Listener.OnActivate(key, res.View, resync)
	}

	if resync {
		c.Resync(key)
		return res
	}
	c.drainBuffer(key)
	return res
}

func (c *Controller) drainBuffer(key string) {
	buf, ok := c.cache.Buffer(key)
	if !ok {
		return
	}
	events := buf.Drain()
	c.cache.DropBuffer(key)
	for _, ev := range events {
		c.deliver(key, ev)
	}
	c.flushed()
}

func (c *Controller) flushed() {
	if c.opts.Listener.OnFlush != nil {
		c.opts.Listener.OnFlush()
	}
}
