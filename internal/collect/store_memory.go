package collect

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/wethinkt/thinkt-live/internal/source"
	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// MemoryStore is an in-process EventStore. Its contents are lost on exit.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memSession
	closed   bool
}

type memSession struct {
	items   []transcript.Event
	byID    map[string]int
	summary transcript.SessionSummary
	lastSeq float64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memSession)}
}

// Append implements EventStore.
func (s *MemoryStore) Append(ctx context.Context, project string, events []transcript.Event) ([]transcript.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	stored := make([]transcript.Event, 0, len(events))
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		sess := s.session(ev.SessionKey)
		if project != "" {
			sess.summary.Project = project
		}

		if i, ok := sess.byID[ev.ID]; ok && ev.Patchable() {
			item := &sess.items[i]
			item.Payload = ev.Payload
			if ev.Kind != "" {
				item.Kind = ev.Kind
			}
			out := *item
			out.Op = transcript.OpUpdate
			stored = append(stored, out)
			continue
		}

		ev.Op = transcript.OpInsert
		if math.IsNaN(ev.Seq) || math.IsInf(ev.Seq, 0) {
			ev.Seq = sess.lastSeq + 1
		}
		sess.lastSeq = math.Max(sess.lastSeq, ev.Seq)
		if ev.Patchable() {
			sess.byID[ev.ID] = len(sess.items)
		}
		sess.items = append(sess.items, ev)
		sess.summary.Observe(ev)
		stored = append(stored, ev)
	}
	return stored, nil
}

func (s *MemoryStore) session(key string) *memSession {
	sess, ok := s.sessions[key]
	if !ok {
		sess = &memSession{
			byID:    make(map[string]int),
			summary: transcript.SessionSummary{Key: key},
		}
		s.sessions[key] = sess
	}
	return sess
}

// Events implements EventStore.
func (s *MemoryStore) Events(ctx context.Context, session string) ([]transcript.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	if session != transcript.AllSessions {
		sess, ok := s.sessions[session]
		if !ok {
			return []transcript.Event{}, nil
		}
		return slices.Clone(sess.items), nil
	}
	var out []transcript.Event
	for _, sess := range s.sessions {
		out = append(out, sess.items...)
	}
	if out == nil {
		out = []transcript.Event{}
	}
	return out, nil
}

// Sessions implements EventStore.
func (s *MemoryStore) Sessions(ctx context.Context) ([]transcript.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]transcript.SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.summary)
	}
	source.SortSummaries(out)
	return out, nil
}

// Close implements EventStore.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
