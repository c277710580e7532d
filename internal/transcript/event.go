// Package transcript defines the live transcript event model shared by the
// feed transport, the source-of-truth collector and the viewer engine.
package transcript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// AllSessions is the reserved key of the aggregate view that receives every
// session's events.
const AllSessions = "all"

// Op tells the engine whether an event adds an item or replaces the payload
// of an existing one.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
)

// Kind identifies what an event renders as.
type Kind string

const (
	KindUser         Kind = "user"
	KindAssistant    Kind = "assistant"
	KindThinking     Kind = "thinking"
	KindToolCall     Kind = "tool_call"
	KindToolOutput   Kind = "tool_output"
	KindConfirmation Kind = "confirmation"
	KindSystem       Kind = "system"
)

// ErrMalformed is returned by DecodeRecord for records that cannot be used.
var ErrMalformed = errors.New("malformed transcript record")

// Event is a single transcript item or an in-place update to one.
//
// TimestampMs and Seq are NaN when the source did not provide them.
type Event struct {
	ID          string
	SessionKey  string
	TimestampMs float64
	Seq         float64
	Kind        Kind
	Op          Op
	Payload     json.RawMessage
}

// IsUpdate reports whether the event replaces the payload of an existing item.
func (e Event) IsUpdate() bool {
	return e.Op == OpUpdate
}

// Patchable reports whether the event can address an existing item. Legacy
// events without an id are always inserted.
func (e Event) Patchable() bool {
	return e.ID != ""
}

// Item returns the ordering tuple of the event.
func (e Event) Item() Item {
	return Item{Key: e.ID, ID: e.ID, SessionKey: e.SessionKey, TimestampMs: e.TimestampMs, Seq: e.Seq}
}

// SameItem reports whether e and other address the same item. Ids are
// only unique within their session.
func (e Event) SameItem(other Event) bool {
	return e.Patchable() && e.ID == other.ID && e.SessionKey == other.SessionKey
}

// QualifiedID identifies the event's item across sessions, or returns ""
// for an id-less event.
func (e Event) QualifiedID() string {
	if !e.Patchable() {
		return ""
	}
	return e.SessionKey + "\x00" + e.ID
}

// Time returns the event timestamp, or the zero time when it is missing.
func (e Event) Time() time.Time {
	if !finite(e.TimestampMs) {
		return time.Time{}
	}
	return time.UnixMilli(int64(e.TimestampMs))
}

// Text extracts a human-readable string from the payload. Payloads may be a
// bare JSON string or an object carrying one of the usual text fields.
func (e Event) Text() string {
	if len(e.Payload) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(e.Payload, &s) == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(e.Payload, &obj) != nil {
		return ""
	}
	for _, k := range []string{"text", "translation", "thinking", "output", "content", "message", "prompt"} {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	if raw, ok := obj["name"]; ok {
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	return ""
}

// wireEvent is the JSON shape of an event. Several spellings of the session
// and timestamp fields are accepted since producers differ.
type wireEvent struct {
	ID          string          `json:"id,omitempty"`
	SessionKey  string          `json:"sessionKey,omitempty"`
	SessionAlt  string          `json:"session_key,omitempty"`
	SessionID   string          `json:"session_id,omitempty"`
	TimestampMs json.RawMessage `json:"timestampMs,omitempty"`
	TS          json.RawMessage `json:"ts,omitempty"`
	Timestamp   json.RawMessage `json:"timestamp,omitempty"`
	Seq         json.RawMessage `json:"seq,omitempty"`
	Kind        Kind            `json:"kind,omitempty"`
	Type        Kind            `json:"type,omitempty"`
	Op          Op              `json:"op,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

type encodedEvent struct {
	ID          string          `json:"id,omitempty"`
	SessionKey  string          `json:"sessionKey"`
	TimestampMs *float64        `json:"timestampMs,omitempty"`
	Seq         *float64        `json:"seq,omitempty"`
	Kind        Kind            `json:"kind,omitempty"`
	Op          Op              `json:"op"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON encodes missing timestamp and sequence values by omission.
func (e Event) MarshalJSON() ([]byte, error) {
	out := encodedEvent{
		ID:         e.ID,
		SessionKey: e.SessionKey,
		Kind:       e.Kind,
		Op:         e.Op,
		Payload:    e.Payload,
	}
	if out.Op == "" {
		out.Op = OpInsert
	}
	if finite(e.TimestampMs) {
		ts := e.TimestampMs
		out.TimestampMs = &ts
	}
	if finite(e.Seq) {
		seq := e.Seq
		out.Seq = &seq
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an event, leaving missing numeric fields as NaN.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	ev := Event{
		ID:         strings.TrimSpace(w.ID),
		SessionKey: firstNonEmpty(w.SessionKey, w.SessionAlt, w.SessionID),
		Kind:       w.Kind,
		Op:         w.Op,
		Payload:    w.Payload,
	}
	if ev.Kind == "" {
		ev.Kind = w.Type
	}

	ts, err := parseTimestamp(firstRaw(w.TimestampMs, w.TS, w.Timestamp))
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	ev.TimestampMs = ts

	seq, err := parseNumber(w.Seq)
	if err != nil {
		return fmt.Errorf("seq: %w", err)
	}
	ev.Seq = seq

	switch strings.ToLower(string(ev.Op)) {
	case "", "insert", "add", "append":
		ev.Op = OpInsert
	case "update", "patch", "replace":
		ev.Op = OpUpdate
	default:
		return fmt.Errorf("unknown op %q", w.Op)
	}

	*e = ev
	return nil
}

// DecodeRecord parses one feed record. Blank lines, SSE "data:" prefixes and
// records without a session key are rejected with ErrMalformed.
func DecodeRecord(line []byte) (Event, error) {
	line = bytes.TrimSpace(line)
	line = bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))
	if len(line) == 0 || line[0] != '{' {
		return Event{}, ErrMalformed
	}
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.SessionKey == "" {
		return Event{}, fmt.Errorf("%w: missing session key", ErrMalformed)
	}
	return ev, nil
}

// LineDecoder turns one line of a transcript file into zero or more events.
// A nil error with no events means the line carries nothing to show.
type LineDecoder func(line []byte) ([]Event, error)

// DecodeLine is the LineDecoder for the native one-event-per-line format.
func DecodeLine(line []byte) ([]Event, error) {
	ev, err := DecodeRecord(line)
	if err != nil {
		return nil, err
	}
	return []Event{ev}, nil
}

// DecodeArray parses a full-fetch response body. Elements that fail to decode
// are skipped and counted.
func DecodeArray(data []byte) ([]Event, int, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, err
	}
	events := make([]Event, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		ev, err := DecodeRecord(raw)
		if err != nil {
			dropped++
			continue
		}
		events = append(events, ev)
	}
	return events, dropped, nil
}

func parseTimestamp(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return math.NaN(), nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return math.NaN(), err
		}
		if s == "" {
			return math.NaN(), nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return math.NaN(), err
		}
		return float64(t.UnixMilli()), nil
	}
	return parseNumber(raw)
}

func parseNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return math.NaN(), nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return math.NaN(), err
	}
	return f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstRaw(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}
