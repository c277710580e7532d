package collect

import (
	"math"
	"testing"
	"time"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

func TestNormalizeEvents_DropsInvalid(t *testing.T) {
	now := time.UnixMilli(5000)
	nan := math.NaN()
	in := []transcript.Event{
		{ID: "ok", SessionKey: " s1 ", Kind: "Assistant", TimestampMs: 10, Seq: nan},
		{ID: "no-session", TimestampMs: 1, Seq: nan},
		{ID: "reserved", SessionKey: "all", TimestampMs: 1, Seq: nan},
		{ID: "bad-kind", SessionKey: "s1", Kind: "banana", TimestampMs: 1, Seq: nan},
		{SessionKey: "s1", Op: transcript.OpUpdate, TimestampMs: nan, Seq: nan},
		{SessionKey: "s1", TimestampMs: nan, Seq: nan},
	}

	got, dropped := NormalizeEvents(in, now)
	if dropped != 4 {
		t.Errorf("dropped = %d, want 4", dropped)
	}
	if len(got) != 2 {
		t.Fatalf("kept %d events, want 2", len(got))
	}
	if got[0].SessionKey != "s1" || got[0].Kind != transcript.KindAssistant || got[0].Op != transcript.OpInsert {
		t.Errorf("first = %+v, want trimmed, lowercased and defaulted", got[0])
	}
	if got[1].TimestampMs != 5000 {
		t.Errorf("legacy insert ts = %v, want stamped 5000", got[1].TimestampMs)
	}
}

func TestNormalizeEvents_UpdatesKeepMissingTimestamp(t *testing.T) {
	in := []transcript.Event{{ID: "a", SessionKey: "s1", Op: transcript.OpUpdate, TimestampMs: math.NaN(), Seq: math.NaN()}}
	got, _ := NormalizeEvents(in, time.Now())
	if !math.IsNaN(got[0].TimestampMs) {
		t.Errorf("update ts = %v, want untouched", got[0].TimestampMs)
	}
}
