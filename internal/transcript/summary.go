package transcript

import "math"

// SessionSummary is a session directory record. It is maintained for every
// session seen on the feed, cached or not.
type SessionSummary struct {
	Key        string  `json:"key"`
	Title      string  `json:"title,omitempty"`
	Project    string  `json:"project,omitempty"`
	Count      int     `json:"count"`
	LastSeenMs float64 `json:"last_seen_ms,omitempty"`
	LastSeq    float64 `json:"last_seq,omitempty"`
}

// Observe folds an event into the summary. Updates never change counts or
// last-seen metadata. Every insert counts, so callers must not pass an
// insert for an item the session already holds.
func (s *SessionSummary) Observe(ev Event) bool {
	if ev.IsUpdate() {
		return false
	}
	s.Count++
	if finite(ev.TimestampMs) && ev.TimestampMs >= s.LastSeenMs {
		s.LastSeenMs = ev.TimestampMs
	}
	if finite(ev.Seq) && ev.Seq >= s.LastSeq {
		s.LastSeq = ev.Seq
	}
	if s.Title == "" && ev.Kind == KindUser {
		s.Title = truncateTitle(ev.Text())
	}
	return true
}

// Merge takes server-side fields from a directory record while keeping the
// larger of the two counts and last-seen values.
func (s *SessionSummary) Merge(other SessionSummary) {
	if other.Title != "" {
		s.Title = other.Title
	}
	if other.Project != "" {
		s.Project = other.Project
	}
	s.Count = max(s.Count, other.Count)
	s.LastSeenMs = math.Max(s.LastSeenMs, other.LastSeenMs)
	s.LastSeq = math.Max(s.LastSeq, other.LastSeq)
}

func truncateTitle(s string) string {
	const maxTitle = 80
	r := []rune(s)
	if len(r) <= maxTitle {
		return s
	}
	return string(r[:maxTitle-1]) + "…"
}
