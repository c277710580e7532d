package collect

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

func TestMemoryStore_AssignsSeqAndUpserts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	stored, err := s.Append(ctx, "", []transcript.Event{
		{ID: "a", SessionKey: "s", TimestampMs: 10, Seq: math.NaN(), Kind: transcript.KindAssistant},
		{ID: "b", SessionKey: "s", TimestampMs: 10, Seq: 7},
		{ID: "c", SessionKey: "s", TimestampMs: 11, Seq: math.NaN()},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stored[0].Seq != 1 || stored[1].Seq != 7 || stored[2].Seq != 8 {
		t.Errorf("seqs = %v %v %v, want 1 7 8", stored[0].Seq, stored[1].Seq, stored[2].Seq)
	}

	stored, err = s.Append(ctx, "", []transcript.Event{
		{ID: "a", SessionKey: "s", Op: transcript.OpUpdate, Payload: json.RawMessage(`{"text":"done"}`)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stored[0].Op != transcript.OpUpdate || stored[0].TimestampMs != 10 || stored[0].Kind != transcript.KindAssistant {
		t.Errorf("patched = %+v", stored[0])
	}

	events, _ := s.Events(ctx, "s")
	if len(events) != 3 || events[0].Text() != "done" {
		t.Errorf("events = %+v", events)
	}
	dir, _ := s.Sessions(ctx)
	if len(dir) != 1 || dir[0].Count != 3 || dir[0].LastSeq != 8 {
		t.Errorf("dir = %+v", dir)
	}
}

func TestMemoryStore_UpdateForUnknownIDIsInserted(t *testing.T) {
	s := NewMemoryStore()
	stored, err := s.Append(context.Background(), "", []transcript.Event{
		{ID: "ghost", SessionKey: "s", TimestampMs: 1, Seq: math.NaN(), Op: transcript.OpUpdate},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stored[0].Op != transcript.OpInsert {
		t.Errorf("op = %q, want insert", stored[0].Op)
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore()
	s.Close()
	if _, err := s.Events(context.Background(), "all"); err != ErrClosed {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}
