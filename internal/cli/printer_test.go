package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

func tailEvent(id string, kind transcript.Kind, text string) transcript.Event {
	payload, _ := json.Marshal(map[string]string{"text": text})
	return transcript.Event{ID: id, SessionKey: "sess-1", TimestampMs: 0, Seq: 1, Kind: kind, Payload: payload}
}

func TestTailPrinter_Lines(t *testing.T) {
	var buf bytes.Buffer
	noColor := false
	p := NewTailPrinter(&buf, TailOptions{Width: 200, Color: &noColor, ShowSession: true})

	p.Insert("a", tailEvent("a", transcript.KindUser, "hello\n  world"), "")
	p.Insert("b", tailEvent("b", transcript.KindToolCall, ""), "a")
	p.Patch("a", tailEvent("a", transcript.KindUser, "hello again"))
	p.Remove("a")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "+ ") || !strings.HasSuffix(lines[0], "[sess-1] User: hello world") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "^ ") || !strings.HasSuffix(lines[1], "Tool Call") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "~ ") || !strings.HasSuffix(lines[2], "hello again") {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestTailPrinter_Truncates(t *testing.T) {
	var buf bytes.Buffer
	noColor := false
	p := NewTailPrinter(&buf, TailOptions{Width: 20, Color: &noColor})

	p.Insert("a", tailEvent("a", transcript.KindAssistant, strings.Repeat("x", 100)), "")
	line := strings.TrimRight(buf.String(), "\n")
	if got := len([]rune(line)); got != 20 {
		t.Errorf("line has %d runes, want 20: %q", got, line)
	}
	if !strings.HasSuffix(line, "…") {
		t.Errorf("truncated line should end with an ellipsis: %q", line)
	}
}

func TestTailPrinter_SkipsUnchangedReinsert(t *testing.T) {
	var buf bytes.Buffer
	noColor := false
	p := NewTailPrinter(&buf, TailOptions{Width: 200, Color: &noColor})

	p.Insert("a", tailEvent("a", transcript.KindUser, "hello"), "")
	p.Remove("a")
	p.Insert("a", tailEvent("a", transcript.KindUser, "hello"), "")
	p.Insert("a", tailEvent("a", transcript.KindUser, "edited"), "")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[1], "edited") {
		t.Errorf("line 1 = %q", lines[1])
	}
}
