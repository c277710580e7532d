// Package view holds the per-session materialized views of the live viewer,
// the bounded LRU cache that keeps them warm, and the event buffers that
// queue events for cached sessions that are not on screen.
package view

import "github.com/wethinkt/thinkt-live/internal/transcript"

// Hook receives the rendering side effects of a materialized view. The
// engine never renders; it only tells the hook which rows appeared, changed
// or went away. An empty beforeID means append at the end.
type Hook interface {
	Insert(id string, ev transcript.Event, beforeID string)
	Patch(id string, ev transcript.Event)
	Remove(id string)
}

// ScrollState is the render cursor of a view, saved while it is hidden.
type ScrollState struct {
	Offset     int  `json:"offset"`
	FollowTail bool `json:"follow_tail"`
}

// Scroller is implemented by hooks that own a scroll position. The cache
// saves it when a view is switched away from and restores it on return.
type Scroller interface {
	ScrollState() ScrollState
	RestoreScroll(ScrollState)
}

// HookFactory creates the hook for a newly materialized view.
type HookFactory func(key string) Hook

// NopHook discards every call.
type NopHook struct{}

func (NopHook) Insert(string, transcript.Event, string) {}
func (NopHook) Patch(string, transcript.Event)          {}
func (NopHook) Remove(string)                           {}
