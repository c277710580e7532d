package live

import (
	"context"
	"time"

	"github.com/wethinkt/thinkt-live/internal/source"
	"github.com/wethinkt/thinkt-live/internal/stream"
	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

type resyncOp struct {
	token  uint64
	cancel context.CancelFunc
	start  time.Time
}

// ResyncResult is the outcome of one full fetch, posted back to the owning
// goroutine.
type ResyncResult struct {
	Scope  string
	Token  uint64
	Events []transcript.Event
	Err    error
}

// Results delivers fetch outcomes for HandleResult. Run drains it; callers
// driving the controller by hand must do the same.
func (c *Controller) Results() <-chan ResyncResult { return c.results }

// Resync starts a full fetch of scope, cancelling any fetch of the same
// scope that is still in flight, and returns its token. Live events are
// deferred until every in-flight resync has finished.
func (c *Controller) Resync(scope string) uint64 {
	if op, ok := c.inflight[scope]; ok {
		op.cancel()
	}
	c.lastToken++
	token := c.lastToken
	done := c.ctx.Done()
	ctx, cancel := context.WithCancel(c.ctx)
	c.inflight[scope] = &resyncOp{token: token, cancel: cancel, start: time.Now()}
	tuilog.Log.Debug("Resync started", "scope", scope, "token", token)

	go func() {
		events, err := c.fetcher.FetchEvents(ctx, scope)
		r := ResyncResult{Scope: scope, Token: token, Events: events, Err: err}
		select {
		case c.results <- r:
		case <-done:
		}
	}()
	return token
}

// HandleResult commits a fetch result if its token is still current. Stale
// results are discarded. A failed fetch leaves the view as it was and marks
// the scope stale so its next activation retries. Deferred events are
// replayed once no resync remains in flight.
func (c *Controller) HandleResult(r ResyncResult) {
	op, ok := c.inflight[r.Scope]
	if !ok || op.token != r.Token {
		resyncsTotal.WithLabelValues("stale").Inc()
		tuilog.Log.Debug("Discarded stale resync", "scope", r.Scope, "token", r.Token)
		return
	}
	delete(c.inflight, r.Scope)
	op.cancel()

	if r.Err != nil {
		c.fail(r.Scope, r.Err)
	} else {
		c.commit(r.Scope, r.Events)
		tuilog.Log.Debug("Resync committed", "scope", r.Scope, "events", len(r.Events), "duration", time.Since(op.start))
	}

	c.drainPending()
	c.flushed()
}

func (c *Controller) commit(scope string, events []transcript.Event) {
	events = transcript.Dedupe(events)
	transcript.SortEvents(events)

	if v, ok := c.cache.Get(scope); ok {
		v.Rebuild(events)
	}
	c.cache.DropBuffer(scope)
	delete(c.failures, scope)
	c.mergeSummaries(source.Summarize(events))
	resyncsTotal.WithLabelValues("committed").Inc()
	if c.opts.Listener.OnResync != nil {
		c.opts.Listener.OnResync(scope, nil)
	}
}

func (c *Controller) fail(scope string, err error) {
	resyncsTotal.WithLabelValues("failed").Inc()
	tuilog.Log.Warn("Resync failed", "scope", scope, "error", err)
	c.failures[scope] = err
	if buf, ok := c.cache.BufferFor(scope); ok {
		buf.MarkStale()
	}
	if c.opts.Listener.OnResync != nil {
		c.opts.Listener.OnResync(scope, err)
	}
}

// HandleStatus applies a feed connectivity change. A connection that
// follows an observed disconnect invalidates every hidden cached session,
// resyncs the active one and refreshes the directory.
func (c *Controller) HandleStatus(status stream.Status, err error) {
	switch status {
	case stream.StatusDisconnected:
		c.connected = false
		c.disconnectSeen = true
	case stream.StatusConnected:
		c.connected = true
		if c.disconnectSeen {
			c.disconnectSeen = false
			c.reconnected()
		}
	default:
		return
	}
	if c.opts.Listener.OnStatus != nil {
		c.opts.Listener.OnStatus(status, err)
	}
}

func (c *Controller) reconnected() {
	active := c.cache.Active()
	invalidated := c.cache.InvalidateInactive(active)
	tuilog.Log.Info("Feed reconnected", "active", active, "invalidated", len(invalidated))
	if active != "" {
		c.Resync(active)
	}
	c.RefreshDirectory()
}
