package view

import (
	"math"

	"github.com/google/uuid"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// Outcome describes what applying an event did to a view.
type Outcome int

const (
	// Ignored means the event had nothing to act on (an update for an id
	// the view has never seen).
	Ignored Outcome = iota
	// Inserted means a new row was placed in the timeline.
	Inserted
	// Patched means an existing row's payload was replaced in place.
	Patched
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Patched:
		return "patched"
	default:
		return "ignored"
	}
}

// View is the materialized rendering state of one session: its timeline,
// the row index and the saved render cursor. Rows are keyed by event id;
// the aggregate view keys them by session and id since ids repeat across
// sessions.
type View struct {
	key            string
	timeline       *transcript.Timeline
	rows           map[string]transcript.Event
	hook           Hook
	lastRenderedMs float64
	scroll         ScrollState
	hidden         bool
}

// New creates an empty view for key. A nil hook discards render calls.
func New(key string, hook Hook) *View {
	if hook == nil {
		hook = NopHook{}
	}
	return &View{
		key:            key,
		timeline:       transcript.NewTimeline(),
		rows:           make(map[string]transcript.Event),
		hook:           hook,
		lastRenderedMs: math.NaN(),
		scroll:         ScrollState{FollowTail: true},
	}
}

// Key returns the session key of the view.
func (v *View) Key() string { return v.key }

// Len returns the number of rows.
func (v *View) Len() int { return v.timeline.Len() }

// Keys returns row keys in timeline order.
func (v *View) Keys() []string { return v.timeline.Keys() }

// Row returns the last applied event of a row.
func (v *View) Row(key string) (transcript.Event, bool) {
	ev, ok := v.rows[key]
	return ev, ok
}

// Has reports whether the view holds a row for key.
func (v *View) Has(key string) bool {
	_, ok := v.rows[key]
	return ok
}

// Contains reports whether the view already holds the item ev addresses.
func (v *View) Contains(ev transcript.Event) bool {
	key := v.RowKey(ev)
	return key != "" && v.Has(key)
}

// RowKey returns the row key ev maps to in this view, or "" for an id-less
// event.
func (v *View) RowKey(ev transcript.Event) string {
	if v.key == transcript.AllSessions {
		return ev.QualifiedID()
	}
	return ev.ID
}

// LastRenderedMs is the newest timestamp the view has rendered, NaN if none.
func (v *View) LastRenderedMs() float64 { return v.lastRenderedMs }

// Scroll returns the saved scroll state.
func (v *View) Scroll() ScrollState { return v.scroll }

// Hidden reports whether the view is currently switched away from.
func (v *View) Hidden() bool { return v.hidden }

// Apply inserts or patches one event. Events for a known id replace the
// row payload without moving it. Updates for unknown ids are ignored;
// id-less events are always inserted under a generated row key.
func (v *View) Apply(ev transcript.Event) Outcome {
	if key := v.RowKey(ev); key != "" {
		if _, ok := v.rows[key]; ok {
			v.patch(key, ev)
			return Patched
		}
		if ev.IsUpdate() {
			return Ignored
		}
	}
	v.insert(ev)
	return Inserted
}

func (v *View) patch(key string, ev transcript.Event) {
	next := v.rows[key]
	next.Payload = ev.Payload
	if ev.Kind != "" {
		next.Kind = ev.Kind
	}
	v.rows[key] = next
	v.hook.Patch(key, next)
}

func (v *View) insert(ev transcript.Event) {
	item := ev.Item()
	item.Key = v.RowKey(ev)
	if item.Key == "" {
		item.Key = "legacy-" + uuid.NewString()
	}
	ev.Op = transcript.OpInsert
	pos, ok := v.timeline.Insert(item)
	if !ok {
		return
	}
	before := ""
	if next, ok := v.timeline.At(pos + 1); ok {
		before = next.Key
	}
	v.rows[item.Key] = ev
	v.markRendered(ev.TimestampMs)
	v.hook.Insert(item.Key, ev, before)
}

func (v *View) markRendered(ts float64) {
	if math.IsNaN(ts) || math.IsInf(ts, 0) {
		return
	}
	if math.IsNaN(v.lastRenderedMs) || ts > v.lastRenderedMs {
		v.lastRenderedMs = ts
	}
}

// Rebuild clears the view and loads events, which must already be deduped
// and sorted with transcript.Compare.
func (v *View) Rebuild(events []transcript.Event) {
	v.clear()
	for _, ev := range events {
		v.insert(ev)
	}
}

// Release removes every row from the hook. The view must not be used after.
func (v *View) Release() {
	v.clear()
}

func (v *View) clear() {
	for _, key := range v.timeline.Keys() {
		v.hook.Remove(key)
	}
	v.timeline.Reset()
	v.rows = make(map[string]transcript.Event)
	v.lastRenderedMs = math.NaN()
}

func (v *View) hide() {
	if s, ok := v.hook.(Scroller); ok {
		v.scroll = s.ScrollState()
	}
	v.hidden = true
}

func (v *View) show() {
	if s, ok := v.hook.(Scroller); ok && v.hidden {
		s.RestoreScroll(v.scroll)
	}
	v.hidden = false
}
