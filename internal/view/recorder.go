package view

import (
	"fmt"
	"slices"
	"sync"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// Recorder is a headless Hook that keeps rows in render order and logs
// every call. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	rows   []string
	events map[string]transcript.Event
	calls  []string
	scroll ScrollState
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{events: make(map[string]transcript.Event), scroll: ScrollState{FollowTail: true}}
}

func (r *Recorder) Insert(id string, ev transcript.Event, beforeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf("insert %s before %q", id, beforeID))
	r.events[id] = ev
	if i := slices.Index(r.rows, beforeID); beforeID != "" && i >= 0 {
		r.rows = slices.Insert(r.rows, i, id)
		return
	}
	r.rows = append(r.rows, id)
}

func (r *Recorder) Patch(id string, ev transcript.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "patch "+id)
	r.events[id] = ev
}

func (r *Recorder) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "remove "+id)
	delete(r.events, id)
	if i := slices.Index(r.rows, id); i >= 0 {
		r.rows = slices.Delete(r.rows, i, i+1)
	}
}

func (r *Recorder) ScrollState() ScrollState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scroll
}

func (r *Recorder) RestoreScroll(s ScrollState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scroll = s
}

// SetScroll simulates the user scrolling.
func (r *Recorder) SetScroll(s ScrollState) { r.RestoreScroll(s) }

// Rows returns the rendered row ids in order.
func (r *Recorder) Rows() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.rows)
}

// Event returns the last rendered event of a row.
func (r *Recorder) Event(id string) (transcript.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	return ev, ok
}

// Calls returns the hook calls in order.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Reset forgets the call log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// RecorderSet creates one Recorder per view key. Its Factory method is a
// HookFactory.
type RecorderSet struct {
	mu   sync.Mutex
	byID map[string]*Recorder
}

// NewRecorderSet returns an empty set.
func NewRecorderSet() *RecorderSet {
	return &RecorderSet{byID: make(map[string]*Recorder)}
}

// Factory returns a fresh recorder for key and remembers it.
func (s *RecorderSet) Factory(key string) Hook {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := NewRecorder()
	s.byID[key] = r
	return r
}

// Get returns the most recent recorder created for key.
func (s *RecorderSet) Get(key string) *Recorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[key]
}
