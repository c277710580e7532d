package transcript

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDecodeRecord_AcceptsFieldSpellings(t *testing.T) {
	ev, err := DecodeRecord([]byte(`{"id":"e1","session_id":"s1","ts":1700000000000,"seq":3,"type":"assistant","payload":{"text":"hi"}}`))
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if ev.SessionKey != "s1" || ev.Kind != KindAssistant || ev.Op != OpInsert {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.TimestampMs != 1700000000000 || ev.Seq != 3 {
		t.Errorf("ts/seq = %v/%v", ev.TimestampMs, ev.Seq)
	}
	if ev.Text() != "hi" {
		t.Errorf("Text() = %q", ev.Text())
	}
}

func TestDecodeRecord_RFC3339AndMissingNumbers(t *testing.T) {
	ev, err := DecodeRecord([]byte(`data: {"sessionKey":"s","timestamp":"2026-01-02T03:04:05Z","op":"patch"}`))
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if ev.Op != OpUpdate {
		t.Errorf("op = %s, want update", ev.Op)
	}
	if ev.Time().Year() != 2026 {
		t.Errorf("time = %v", ev.Time())
	}
	if !math.IsNaN(ev.Seq) {
		t.Errorf("seq = %v, want NaN", ev.Seq)
	}
	if ev.Patchable() {
		t.Error("id-less event should not be patchable")
	}
}

func TestDecodeRecord_Malformed(t *testing.T) {
	for _, line := range []string{
		``,
		`not json`,
		`{"id":"a"}`,
		`{"sessionKey":"s","ts":"yesterday"}`,
		`{"sessionKey":"s","op":"delete"}`,
		`[1,2]`,
	} {
		if _, err := DecodeRecord([]byte(line)); !errors.Is(err, ErrMalformed) {
			t.Errorf("DecodeRecord(%q) err = %v, want ErrMalformed", line, err)
		}
	}
}

func TestDecodeArray_SkipsBadElements(t *testing.T) {
	events, dropped, err := DecodeArray([]byte(`[{"id":"a","sessionKey":"s"}, 7, {"id":"b"}, {"id":"c","sessionKey":"s"}]`))
	if err != nil {
		t.Fatalf("DecodeArray: %v", err)
	}
	if len(events) != 2 || dropped != 2 {
		t.Errorf("got %d events, %d dropped; want 2, 2", len(events), dropped)
	}
	if _, _, err := DecodeArray([]byte(`{"id":"a"}`)); err == nil {
		t.Error("expected error for non-array body")
	}
}

func TestEvent_MarshalOmitsMissingNumbers(t *testing.T) {
	data, err := json.Marshal(Event{ID: "a", SessionKey: "s", TimestampMs: math.NaN(), Seq: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "timestampMs") {
		t.Errorf("missing timestamp encoded: %s", data)
	}
	back, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if !math.IsNaN(back.TimestampMs) || back.Seq != 2 || back.Op != OpInsert {
		t.Errorf("decoded %+v", back)
	}
}

func TestSessionSummary_UpdatesDoNotCount(t *testing.T) {
	var s SessionSummary
	s.Observe(Event{Kind: KindUser, TimestampMs: 10, Seq: 1, Payload: []byte(`"fix the build"`)})
	s.Observe(Event{ID: "x", Op: OpUpdate, TimestampMs: 99})
	if s.Count != 1 || s.LastSeenMs != 10 {
		t.Errorf("summary = %+v", s)
	}
	if s.Title != "fix the build" {
		t.Errorf("title = %q", s.Title)
	}
}
