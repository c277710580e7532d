package live

import (
	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
	"github.com/wethinkt/thinkt-live/internal/view"
)

// pendingEvent is an event deferred while a resync is in flight. An empty
// target means full routing; otherwise it is a buffered event being
// replayed into one view.
type pendingEvent struct {
	ev     transcript.Event
	target string
}

// HandleEvent routes one feed event and reports what happened to it in its
// own session. The event is also offered to the aggregate view when that is
// cached.
func (c *Controller) HandleEvent(ev transcript.Event) Route {
	if c.Resyncing() {
		c.enqueuePending(pendingEvent{ev: ev})
		eventsRoutedTotal.WithLabelValues(RoutePending.String()).Inc()
		return RoutePending
	}

	if !c.known(ev) {
		c.observe(ev)
	}
	route := c.route(ev.SessionKey, ev)
	if ev.SessionKey != transcript.AllSessions && c.cache.Has(transcript.AllSessions) {
		c.route(transcript.AllSessions, ev)
	}
	eventsRoutedTotal.WithLabelValues(route.String()).Inc()
	return route
}

// route sends ev to the view of key: applied when active, buffered when
// cached and hidden, dropped otherwise. The hidden aggregate view is never
// buffered because activating it always resyncs.
func (c *Controller) route(key string, ev transcript.Event) Route {
	if key == c.cache.Active() {
		c.apply(key, ev)
		return RouteApplied
	}
	if key == transcript.AllSessions {
		return RouteDropped
	}
	buf, ok := c.cache.BufferFor(key)
	if !ok {
		return RouteDropped
	}
	switch buf.Push(ev) {
	case view.Overflowed:
		bufferOverflowsTotal.Inc()
		tuilog.Log.Debug("Session buffer overflowed", "session", key, "max", buf.Cap())
		return RouteBuffered
	case view.Dropped:
		return RouteDropped
	default:
		return RouteBuffered
	}
}

// deliver replays a buffered event into the view of key.
func (c *Controller) deliver(key string, ev transcript.Event) {
	if c.Resyncing() {
		c.enqueuePending(pendingEvent{ev: ev, target: key})
		return
	}
	if key == c.cache.Active() {
		c.apply(key, ev)
		return
	}
	c.route(key, ev)
}

func (c *Controller) apply(key string, ev transcript.Event) {
	v, ok := c.cache.Get(key)
	if !ok {
		return
	}
	if v.Apply(ev) == view.Inserted {
		c.markDirectoryDirty()
	}
}

// known reports whether a cached view or buffer already holds the item ev
// addresses, so a redelivered insert is not counted again.
func (c *Controller) known(ev transcript.Event) bool {
	if !ev.Patchable() {
		return false
	}
	for _, key := range []string{ev.SessionKey, transcript.AllSessions} {
		if v, ok := c.cache.Get(key); ok && v.Contains(ev) {
			return true
		}
	}
	if buf, ok := c.cache.Buffer(ev.SessionKey); ok && buf.Queued(ev) {
		return true
	}
	return false
}

// observe keeps the session directory current for every session, cached
// or not. Updates never change counts.
func (c *Controller) observe(ev transcript.Event) {
	if ev.SessionKey == "" || ev.SessionKey == transcript.AllSessions {
		return
	}
	s, ok := c.summaries[ev.SessionKey]
	if !ok {
		s = &transcript.SessionSummary{Key: ev.SessionKey}
		c.summaries[ev.SessionKey] = s
	}
	if s.Observe(ev) {
		c.markDirectoryDirty()
	}
}

// enqueuePending queues an event until every in-flight resync has
// finished. A queued update for the same item and target is replaced in
// place.
func (c *Controller) enqueuePending(p pendingEvent) {
	if p.ev.IsUpdate() && p.ev.Patchable() {
		for i := len(c.pending) - 1; i >= 0; i-- {
			q := c.pending[i]
			if q.target == p.target && q.ev.IsUpdate() && q.ev.SameItem(p.ev) {
				c.pending[i] = p
				return
			}
		}
	}
	c.pending = append(c.pending, p)
	pendingEvents.Set(float64(len(c.pending)))
}

// drainPending replays deferred events in arrival order. It runs only
// after a commit has finished and no resync remains in flight.
func (c *Controller) drainPending() {
	if c.Resyncing() || len(c.pending) == 0 {
		return
	}
	queued := c.pending
	c.pending = nil
	pendingEvents.Set(0)
	for _, p := range queued {
		if p.target != "" {
			c.deliver(p.target, p.ev)
			continue
		}
		c.HandleEvent(p.ev)
	}
}
