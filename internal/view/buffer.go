package view

import "github.com/wethinkt/thinkt-live/internal/transcript"

// DefaultBufferSize is the number of events a hidden session may queue
// before it is considered stale.
const DefaultBufferSize = 200

// PushResult describes what EventBuffer.Push did with an event.
type PushResult int

const (
	// Appended means the event was added at the end of the buffer.
	Appended PushResult = iota
	// Coalesced means the event replaced a queued update for the same id.
	Coalesced
	// Overflowed means the buffer just crossed its bound and became stale.
	Overflowed
	// Dropped means the buffer was already stale and the event was discarded.
	Dropped
)

func (r PushResult) String() string {
	switch r {
	case Appended:
		return "appended"
	case Coalesced:
		return "coalesced"
	case Overflowed:
		return "overflowed"
	default:
		return "dropped"
	}
}

// CoalesceIndex returns the index of the queued event that ev replaces, or
// -1. Only an update replaces an earlier update for the same item; id-less
// events never coalesce.
func CoalesceIndex(queue []transcript.Event, ev transcript.Event) int {
	if !ev.IsUpdate() || !ev.Patchable() {
		return -1
	}
	for i := len(queue) - 1; i >= 0; i-- {
		if queue[i].IsUpdate() && queue[i].SameItem(ev) {
			return i
		}
	}
	return -1
}

// EventBuffer queues events for a session that is cached but not shown.
// Once it overflows it holds nothing and stays stale until ClearStale.
type EventBuffer struct {
	items      []transcript.Event
	max        int
	overflowed bool
}

// NewEventBuffer returns an empty buffer bounded at max events.
func NewEventBuffer(max int) *EventBuffer {
	if max <= 0 {
		max = DefaultBufferSize
	}
	return &EventBuffer{max: max}
}

// Push queues ev.
func (b *EventBuffer) Push(ev transcript.Event) PushResult {
	if b.overflowed {
		return Dropped
	}
	if i := CoalesceIndex(b.items, ev); i >= 0 {
		b.items[i] = ev
		return Coalesced
	}
	if len(b.items) >= b.max {
		b.overflowed = true
		b.items = nil
		return Overflowed
	}
	b.items = append(b.items, ev)
	return Appended
}

// Drain returns the queued events in arrival order and empties the buffer.
// A stale buffer drains nothing.
func (b *EventBuffer) Drain() []transcript.Event {
	if b.overflowed {
		return nil
	}
	out := b.items
	b.items = nil
	return out
}

// MarkStale discards queued events and forces a resync on next activation.
func (b *EventBuffer) MarkStale() {
	b.items = nil
	b.overflowed = true
}

// ClearStale resets the buffer after a resync has committed.
func (b *EventBuffer) ClearStale() {
	b.items = nil
	b.overflowed = false
}

// Stale reports whether the buffer overflowed or was invalidated.
func (b *EventBuffer) Stale() bool { return b.overflowed }

// Queued reports whether an insert for the item ev addresses is waiting in
// the buffer.
func (b *EventBuffer) Queued(ev transcript.Event) bool {
	for _, q := range b.items {
		if !q.IsUpdate() && q.SameItem(ev) {
			return true
		}
	}
	return false
}

// Len returns the number of queued events.
func (b *EventBuffer) Len() int { return len(b.items) }

// Cap returns the buffer bound.
func (b *EventBuffer) Cap() int { return b.max }
