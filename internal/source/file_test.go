package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

const fixture = `{"id":"1","sessionKey":"a","ts":10,"kind":"user","payload":"first question"}
{"id":"2","sessionKey":"b","ts":30,"kind":"user","payload":"other"}

not json
{"id":"3","sessionKey":"a","ts":20,"kind":"assistant","payload":"answer"}
{"id":"3","sessionKey":"a","op":"update","payload":"answer, translated"}
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	if err := os.WriteFile(path, []byte(fixture), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFile_FetchEventsFiltersScope(t *testing.T) {
	f := NewFile(writeFixture(t))
	all, err := f.FetchEvents(context.Background(), "all")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("all = %d events, want 4", len(all))
	}
	a, err := f.FetchEvents(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 3 {
		t.Errorf("session a = %d events, want 3", len(a))
	}
}

func TestFile_ListSessionsCountsDistinctItems(t *testing.T) {
	sessions, err := NewFile(writeFixture(t)).ListSessions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %+v", sessions)
	}
	if sessions[0].Key != "b" {
		t.Errorf("first session = %q, want most recent b", sessions[0].Key)
	}
	a := sessions[1]
	if a.Count != 2 || a.LastSeenMs != 20 || a.Title != "first question" {
		t.Errorf("session a = %+v", a)
	}
}

func TestFile_Missing(t *testing.T) {
	if _, err := NewFile(filepath.Join(t.TempDir(), "nope")).FetchEvents(context.Background(), "all"); err == nil {
		t.Error("expected error")
	}
}

func TestSummarize_IDsRepeatAcrossSessions(t *testing.T) {
	events := []transcript.Event{
		{ID: "1", SessionKey: "a", TimestampMs: 10, Kind: transcript.KindUser, Op: transcript.OpInsert},
		{ID: "1", SessionKey: "b", TimestampMs: 20, Kind: transcript.KindUser, Op: transcript.OpInsert},
		{ID: "1", SessionKey: "a", TimestampMs: 10, Kind: transcript.KindUser, Op: transcript.OpInsert},
	}
	counts := map[string]int{}
	for _, s := range Summarize(events) {
		counts[s.Key] = s.Count
	}
	if counts["a"] != 1 || counts["b"] != 1 {
		t.Errorf("counts = %v, want a:1 b:1", counts)
	}
}
