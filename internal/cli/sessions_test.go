package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

func TestSessionsFormatter_FormatList(t *testing.T) {
	sessions := []transcript.SessionSummary{{Key: "abc123"}, {Key: "def456"}}

	var buf bytes.Buffer
	if err := NewSessionsFormatter(&buf).FormatList(sessions); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "abc123\ndef456\n" {
		t.Errorf("output = %q", got)
	}
}

func TestSessionsFormatter_FormatSummary(t *testing.T) {
	sessions := []transcript.SessionSummary{
		{Key: "old", Count: 3, LastSeenMs: 1000},
		{Key: "new", Title: "Fix the parser", Project: "demo", Count: 10, LastSeenMs: 5000},
	}

	var buf bytes.Buffer
	err := NewSessionsFormatter(&buf).FormatSummary(sessions, SessionListOptions{Descending: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.HasPrefix(output, "new  Fix the parser") {
		t.Errorf("newest session should come first: %q", output)
	}
	for _, want := range []string{"Events:    10", "Project:   demo", "Events:    3"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSessionsFormatter_CustomTemplate(t *testing.T) {
	sessions := []transcript.SessionSummary{{Key: "b", Count: 1}, {Key: "a", Count: 2}}

	var buf bytes.Buffer
	err := NewSessionsFormatter(&buf).FormatSummary(sessions, SessionListOptions{
		SortBy:   "name",
		Template: "{{range .}}{{.Key}}={{.Count}};{{end}}",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "a=2;b=1;" {
		t.Errorf("output = %q", got)
	}

	if err := NewSessionsFormatter(&buf).FormatSummary(sessions, SessionListOptions{Template: "{{"}); err == nil {
		t.Error("expected template parse error")
	}
}
