package claude

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

const (
	userLine      = `{"type":"user","uuid":"u1","sessionId":"s1","timestamp":"2026-01-02T03:04:05.500Z","message":{"role":"user","content":"fix the build"}}`
	assistantLine = `{"type":"assistant","uuid":"a1","sessionId":"s1","timestamp":"2026-01-02T03:04:06Z","message":{"role":"assistant","model":"m","content":[{"type":"thinking","thinking":"look at go.mod"},{"type":"text","text":"Checking."},{"type":"tool_use","id":"toolu_1","name":"Read","input":{"path":"go.mod"}}]}}`
	resultLine    = `{"type":"user","uuid":"r1","sessionId":"s1","timestamp":"2026-01-02T03:04:07Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_1","content":[{"type":"text","text":"module x"}]}]}}`
	summaryLine   = `{"type":"summary","summary":"Build fix","leafUuid":"a1"}`
)

func TestDecodeEntry_User(t *testing.T) {
	events, err := DecodeEntry([]byte(userLine), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	ev := events[0]
	if ev.ID != "u1" || ev.SessionKey != "s1" || ev.Kind != transcript.KindUser || ev.Text() != "fix the build" {
		t.Errorf("event = %+v", ev)
	}
	if ev.TimestampMs != 1767323045500 {
		t.Errorf("timestamp = %v", ev.TimestampMs)
	}
}

func TestDecodeEntry_AssistantBlocksKeepOrder(t *testing.T) {
	events, err := DecodeEntry([]byte(assistantLine), "")
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		id   string
		kind transcript.Kind
	}{
		{"a1", transcript.KindThinking},
		{"a1#1", transcript.KindAssistant},
		{"a1#2", transcript.KindToolCall},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events", len(events))
	}
	for i, w := range want {
		if events[i].ID != w.id || events[i].Kind != w.kind {
			t.Errorf("event %d = %s/%s, want %s/%s", i, events[i].ID, events[i].Kind, w.id, w.kind)
		}
	}
	if transcript.CompareEvents(events[0], events[2]) >= 0 {
		t.Error("blocks of one entry must sort in block order")
	}
	if !strings.Contains(string(events[2].Payload), `"name":"Read"`) {
		t.Errorf("tool call payload = %s", events[2].Payload)
	}
}

func TestDecodeEntry_ToolResult(t *testing.T) {
	events, err := DecodeEntry([]byte(resultLine), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Kind != transcript.KindToolOutput || events[0].Text() != "module x" {
		t.Fatalf("events = %+v", events)
	}
}

func TestDecodeEntry_SummaryUsesFallbackSession(t *testing.T) {
	events, err := DecodeEntry([]byte(summaryLine), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].SessionKey != "s1" || events[0].ID != "summary-a1" {
		t.Fatalf("events = %+v", events)
	}
	if !math.IsNaN(events[0].TimestampMs) {
		t.Errorf("summary timestamp = %v, want missing", events[0].TimestampMs)
	}

	if _, err := DecodeEntry([]byte(summaryLine), ""); !errors.Is(err, transcript.ErrMalformed) {
		t.Errorf("missing session: err = %v", err)
	}
}

func TestDecodeEntry_SkipsUnshownEntries(t *testing.T) {
	for _, line := range []string{
		`{"type":"progress","uuid":"p1","sessionId":"s1"}`,
		`{"type":"user","uuid":"m1","sessionId":"s1","isMeta":true,"message":{"role":"user","content":"caveat"}}`,
		``,
	} {
		events, err := DecodeEntry([]byte(line), "s1")
		if err != nil || len(events) != 0 {
			t.Errorf("%q: events=%v err=%v", line, events, err)
		}
	}
	if _, err := DecodeEntry([]byte(`{not json`), "s1"); !errors.Is(err, transcript.ErrMalformed) {
		t.Errorf("garbage: err = %v", err)
	}
}

func TestLooksLikeEntry(t *testing.T) {
	if !LooksLikeEntry([]byte(userLine)) || !LooksLikeEntry([]byte(summaryLine)) {
		t.Error("Claude Code entries not detected")
	}
	native := `{"id":"e1","sessionKey":"s1","kind":"user","payload":{"text":"hi"}}`
	if LooksLikeEntry([]byte(native)) {
		t.Error("native event detected as Claude Code entry")
	}
}
