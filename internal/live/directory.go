package live

import (
	"github.com/wethinkt/thinkt-live/internal/source"
	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

// DirectoryResult is one session directory fetch.
type DirectoryResult struct {
	Sessions []transcript.SessionSummary
	Err      error
}

// RefreshDirectory fetches the session directory in the background. The
// result is merged by HandleDirectory.
func (c *Controller) RefreshDirectory() {
	ctx := c.ctx
	go func() {
		sessions, err := c.fetcher.ListSessions(ctx)
		select {
		case c.dirResults <- DirectoryResult{Sessions: sessions, Err: err}:
		case <-ctx.Done():
		}
	}()
}

// DirectoryResults delivers directory fetches for HandleDirectory.
func (c *Controller) DirectoryResults() <-chan DirectoryResult { return c.dirResults }

// HandleDirectory merges a fetched directory into the locally observed one.
func (c *Controller) HandleDirectory(r DirectoryResult) {
	if r.Err != nil {
		tuilog.Log.Warn("Session directory refresh failed", "error", r.Err)
		return
	}
	c.mergeSummaries(r.Sessions)
}

func (c *Controller) mergeSummaries(sessions []transcript.SessionSummary) {
	for _, s := range sessions {
		if s.Key == "" || s.Key == transcript.AllSessions {
			continue
		}
		if cur, ok := c.summaries[s.Key]; ok {
			cur.Merge(s)
		} else {
			cp := s
			c.summaries[s.Key] = &cp
		}
	}
	if len(sessions) > 0 {
		c.markDirectoryDirty()
	}
}

func (c *Controller) markDirectoryDirty() { c.dirDirty = true }

// DirectoryDirty reports whether the directory changed since the last
// FlushDirectory.
func (c *Controller) DirectoryDirty() bool { return c.dirDirty }

// Sessions returns the session directory, most recently seen first.
func (c *Controller) Sessions() []transcript.SessionSummary {
	out := make([]transcript.SessionSummary, 0, len(c.summaries))
	for _, s := range c.summaries {
		out = append(out, *s)
	}
	source.SortSummaries(out)
	return out
}

// FlushDirectory delivers the directory to the listener if it changed.
func (c *Controller) FlushDirectory() {
	if !c.dirDirty {
		return
	}
	c.dirDirty = false
	if c.opts.Listener.OnDirectory != nil {
		c.opts.Listener.OnDirectory(c.Sessions())
	}
}
