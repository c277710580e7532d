package collect

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// validKinds is the set of accepted event kinds. An empty kind is allowed.
var validKinds = map[transcript.Kind]bool{
	transcript.KindUser:         true,
	transcript.KindAssistant:    true,
	transcript.KindThinking:     true,
	transcript.KindToolCall:     true,
	transcript.KindToolOutput:   true,
	transcript.KindConfirmation: true,
	transcript.KindSystem:       true,
}

// NormalizeEvents validates and cleans ingested events. Events that fail
// validation are removed and their count returned. Inserts without a
// timestamp are stamped with now.
func NormalizeEvents(events []transcript.Event, now time.Time) ([]transcript.Event, int) {
	valid := make([]transcript.Event, 0, len(events))
	dropped := 0
	for i := range events {
		e := events[i]
		if err := normalizeEvent(&e, now); err != nil {
			dropped++
			continue
		}
		valid = append(valid, e)
	}
	return valid, dropped
}

// normalizeEvent validates and cleans a single event.
func normalizeEvent(e *transcript.Event, now time.Time) error {
	e.SessionKey = strings.TrimSpace(e.SessionKey)
	if e.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}
	if e.SessionKey == transcript.AllSessions {
		return fmt.Errorf("session key %q is reserved", e.SessionKey)
	}
	e.ID = strings.TrimSpace(e.ID)
	e.Kind = transcript.Kind(strings.ToLower(strings.TrimSpace(string(e.Kind))))
	if e.Kind != "" && !validKinds[e.Kind] {
		return fmt.Errorf("invalid kind: %q", e.Kind)
	}
	if e.Op == "" {
		e.Op = transcript.OpInsert
	}
	if e.IsUpdate() && e.ID == "" {
		return fmt.Errorf("update without id")
	}
	if !e.IsUpdate() && (math.IsNaN(e.TimestampMs) || math.IsInf(e.TimestampMs, 0)) {
		e.TimestampMs = float64(now.UnixMilli())
	}
	return nil
}
