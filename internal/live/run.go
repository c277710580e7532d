package live

import (
	"context"
	"time"

	"github.com/wethinkt/thinkt-live/internal/stream"
)

type requestKind int

const (
	requestActivate requestKind = iota
	requestResync
	requestRefresh
)

type request struct {
	kind requestKind
	key  string
}

// RequestActivate asks the owning goroutine to activate key. It is safe to
// call from any goroutine.
func (c *Controller) RequestActivate(key string) { c.post(request{kind: requestActivate, key: key}) }

// RequestResync asks the owning goroutine to resync scope.
func (c *Controller) RequestResync(scope string) { c.post(request{kind: requestResync, key: scope}) }

// RequestRefresh asks the owning goroutine to refresh the directory.
func (c *Controller) RequestRefresh() { c.post(request{kind: requestRefresh}) }

func (c *Controller) post(r request) {
	select {
	case c.requests <- r:
	case <-c.ctx.Done():
	}
}

func (c *Controller) handleRequest(r request) {
	switch r.kind {
	case requestActivate:
		c.Activate(r.key)
	case requestResync:
		c.Resync(r.key)
	case requestRefresh:
		c.RefreshDirectory()
	}
}

// Run owns the engine until ctx is done. Feed updates are applied in
// batches of BatchWindow; fetch results, requests and the debounced
// directory are handled as they arrive. A closed feed stops delivering
// updates but does not end Run.
func (c *Controller) Run(ctx context.Context, feed <-chan stream.Update) error {
	defer c.Dispose()

	var batch []stream.Update
	flushTimer := newStoppedTimer()
	dirTimer := newStoppedTimer()
	flushArmed, dirArmed := false, false

	flush := func() {
		for _, u := range batch {
			if u.IsStatus() {
				c.HandleStatus(u.Status, u.Err)
				continue
			}
			c.HandleEvent(u.Event)
		}
		batch = batch[:0]
		c.flushed()
	}

	for {
		if c.dirDirty && !dirArmed {
			dirTimer.Reset(c.opts.DirectoryDebounce)
			dirArmed = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case u, ok := <-feed:
			if !ok {
				feed = nil
				continue
			}
			batch = append(batch, u)
			if c.opts.BatchWindow == 0 {
				flush()
			} else if !flushArmed {
				flushTimer.Reset(c.opts.BatchWindow)
				flushArmed = true
			}

		case <-flushTimer.C:
			flushArmed = false
			flush()

		case r := <-c.results:
			c.HandleResult(r)

		case d := <-c.dirResults:
			c.HandleDirectory(d)

		case r := <-c.requests:
			c.handleRequest(r)

		case <-dirTimer.C:
			dirArmed = false
			c.FlushDirectory()
		}
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(0)
	if !t.Stop() {
		<-t.C
	}
	return t
}
