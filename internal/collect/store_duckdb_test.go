//go:build cgo

package collect

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// newTestStore creates a DuckDBStore in a temp directory for testing.
func newTestStore(t *testing.T) *DuckDBStore {
	t.Helper()
	store, err := NewDuckDBStore(filepath.Join(t.TempDir(), "test.duckdb"))
	if err != nil {
		t.Fatalf("NewDuckDBStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDuckDBStore_AppendAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stored, err := store.Append(ctx, "demo", []transcript.Event{
		{ID: "u1", SessionKey: "s1", TimestampMs: 1000, Seq: math.NaN(), Kind: transcript.KindUser, Payload: json.RawMessage(`{"text":"hello"}`)},
		{ID: "a1", SessionKey: "s1", TimestampMs: 2000, Seq: math.NaN(), Kind: transcript.KindAssistant},
		{SessionKey: "s2", TimestampMs: math.NaN(), Seq: 4},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if stored[0].Seq != 1 || stored[1].Seq != 2 {
		t.Errorf("assigned seqs = %v, %v", stored[0].Seq, stored[1].Seq)
	}

	events, err := store.Events(ctx, "s1")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	all, err := store.Events(ctx, transcript.AllSessions)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d events, want 3", len(all))
	}
	for _, ev := range all {
		if ev.SessionKey == "s2" && !math.IsNaN(ev.TimestampMs) {
			t.Errorf("missing timestamp came back as %v", ev.TimestampMs)
		}
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].Key != "s1" || sessions[0].Count != 2 || sessions[0].Title != "hello" || sessions[0].Project != "demo" {
		t.Errorf("sessions[0] = %+v", sessions[0])
	}
}

func TestDuckDBStore_UpdateKeepsPosition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, "", []transcript.Event{
		{ID: "a", SessionKey: "s", TimestampMs: 5, Seq: 1, Kind: transcript.KindAssistant, Payload: json.RawMessage(`{"text":"par"}`)},
	}); err != nil {
		t.Fatal(err)
	}
	stored, err := store.Append(ctx, "", []transcript.Event{
		{ID: "a", SessionKey: "s", TimestampMs: math.NaN(), Seq: math.NaN(), Op: transcript.OpUpdate, Payload: json.RawMessage(`{"text":"partial"}`)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stored[0].Op != transcript.OpUpdate || stored[0].TimestampMs != 5 || stored[0].Seq != 1 {
		t.Errorf("stored = %+v", stored[0])
	}

	events, _ := store.Events(ctx, "s")
	if len(events) != 1 || events[0].Text() != "partial" {
		t.Errorf("events = %+v", events)
	}
	sessions, _ := store.Sessions(ctx)
	if sessions[0].Count != 1 {
		t.Errorf("count = %d, want 1", sessions[0].Count)
	}
}
