package tui

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tui/theme"
	"github.com/wethinkt/thinkt-live/internal/view"
)

func testRenderer() *Renderer {
	return NewRenderer(NewStyles(theme.DefaultTheme()), "notty")
}

func rowEvent(id string, kind transcript.Kind, text string) transcript.Event {
	payload, _ := json.Marshal(map[string]string{"text": text})
	return transcript.Event{ID: id, SessionKey: "s1", TimestampMs: 1, Seq: 1, Kind: kind, Payload: payload}
}

func TestRows_HookOrder(t *testing.T) {
	r := NewRows("s1")
	r.Insert("b", rowEvent("b", transcript.KindUser, "second"), "")
	r.Insert("a", rowEvent("a", transcript.KindUser, "first"), "b")
	r.Insert("c", rowEvent("c", transcript.KindUser, "third"), "")

	if got := strings.Join(r.IDs(), ","); got != "a,b,c" {
		t.Fatalf("order = %s, want a,b,c", got)
	}

	r.Remove("b")
	if got := strings.Join(r.IDs(), ","); got != "a,c" {
		t.Errorf("order after remove = %s", got)
	}
}

func TestRows_PatchRerenders(t *testing.T) {
	r := NewRows("s1")
	rd := testRenderer()

	r.Insert("a", rowEvent("a", transcript.KindUser, "draft"), "")
	v := r.Version()
	if out := r.Render(rd, 60, nil); !strings.Contains(out, "draft") {
		t.Fatalf("render = %q", out)
	}

	r.Patch("a", rowEvent("a", transcript.KindUser, "final answer"))
	if r.Version() == v {
		t.Error("version did not change on patch")
	}
	out := r.Render(rd, 60, nil)
	if strings.Contains(out, "draft") || !strings.Contains(out, "final answer") {
		t.Errorf("render after patch = %q", out)
	}
}

func TestRows_Filters(t *testing.T) {
	r := NewRows("s1")
	rd := testRenderer()
	r.Insert("u", rowEvent("u", transcript.KindUser, "question"), "")
	r.Insert("t", rowEvent("t", transcript.KindThinking, "pondering"), "")

	f := NewKindFilterSet()
	f.Thinking = false
	out := r.Render(rd, 60, &f)
	if strings.Contains(out, "pondering") || !strings.Contains(out, "question") {
		t.Errorf("filtered render = %q", out)
	}
}

func TestRowSet_FactoryAndScroll(t *testing.T) {
	set := NewRowSet()
	var hook view.Hook = set.Factory("s1")
	hook.Insert("a", rowEvent("a", transcript.KindUser, "x"), "")

	r, ok := set.Get("s1")
	if !ok || r.Len() != 1 {
		t.Fatalf("Get(s1) = %v, %v", r, ok)
	}
	if !r.ScrollState().FollowTail {
		t.Error("new rows should follow the tail")
	}

	sc, ok := hook.(view.Scroller)
	if !ok {
		t.Fatal("rows should implement view.Scroller")
	}
	sc.RestoreScroll(view.ScrollState{Offset: 7})
	if got := r.ScrollState(); got.Offset != 7 || got.FollowTail {
		t.Errorf("scroll = %+v", got)
	}

	if _, ok := set.Get("missing"); ok {
		t.Error("Get(missing) should be false")
	}
}
