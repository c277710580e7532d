package tui

import (
	"slices"
	"strings"
	"sync"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/view"
)

// Rows is the view.Hook of one session in the TUI. The engine goroutine
// mutates it and the UI goroutine renders it, so every method locks.
type Rows struct {
	mu       sync.Mutex
	key      string
	order    []string
	events   map[string]transcript.Event
	rendered map[string]string
	width    int
	scroll   view.ScrollState
	version  uint64
}

// NewRows returns the empty rows of session key.
func NewRows(key string) *Rows {
	return &Rows{
		key:      key,
		events:   make(map[string]transcript.Event),
		rendered: make(map[string]string),
		scroll:   view.ScrollState{FollowTail: true},
	}
}

// Insert implements view.Hook.
func (r *Rows) Insert(id string, ev transcript.Event, beforeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[id] = ev
	delete(r.rendered, id)
	if i := slices.Index(r.order, beforeID); beforeID != "" && i >= 0 {
		r.order = slices.Insert(r.order, i, id)
	} else {
		r.order = append(r.order, id)
	}
	r.version++
}

// Patch implements view.Hook.
func (r *Rows) Patch(id string, ev transcript.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[id] = ev
	delete(r.rendered, id)
	r.version++
}

// Remove implements view.Hook.
func (r *Rows) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, id)
	delete(r.rendered, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	r.version++
}

// ScrollState implements view.Scroller.
func (r *Rows) ScrollState() view.ScrollState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scroll
}

// RestoreScroll implements view.Scroller.
func (r *Rows) RestoreScroll(s view.ScrollState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scroll = s
}

// Len returns the number of rows.
func (r *Rows) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Version increases on every change.
func (r *Rows) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// IDs returns the row ids in render order.
func (r *Rows) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Render draws the visible rows. Rendered rows are cached until they
// change or the width does.
func (r *Rows) Render(rd *Renderer, width int, filters *KindFilterSet) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width != r.width {
		clear(r.rendered)
		r.width = width
	}

	showSession := r.key == transcript.AllSessions
	var b strings.Builder
	for _, id := range r.order {
		ev := r.events[id]
		if filters != nil && !filters.Visible(ev.Kind) {
			continue
		}
		s, ok := r.rendered[id]
		if !ok {
			s = rd.Render(ev, width, showSession)
			r.rendered[id] = s
		}
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String()
}

// RowSet owns the Rows of every materialized view.
type RowSet struct {
	mu   sync.Mutex
	rows map[string]*Rows
}

// NewRowSet returns an empty set.
func NewRowSet() *RowSet {
	return &RowSet{rows: make(map[string]*Rows)}
}

// Factory is a view.HookFactory. A view rematerialized after eviction
// starts from fresh rows.
func (s *RowSet) Factory(key string) view.Hook {
	r := NewRows(key)
	s.mu.Lock()
	s.rows[key] = r
	s.mu.Unlock()
	return r
}

// Get returns the rows of key.
func (s *RowSet) Get(key string) (*Rows, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[key]
	return r, ok
}
