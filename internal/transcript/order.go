package transcript

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// Item is the ordering tuple stored in a timeline. Key is the row identity:
// the event id (qualified by session in the aggregate view), or a generated
// key for legacy events that have none.
type Item struct {
	Key         string
	ID          string
	SessionKey  string
	TimestampMs float64
	Seq         float64
}

// Compare orders two items: finite timestamps first and ascending, then
// finite sequence numbers ascending, then ids lexically. Missing values sort
// after present ones. Items of one session never share an id, so the last
// tie-break on session key only separates rows of the aggregate view.
func Compare(a, b Item) int {
	if c := compareMissingLast(a.TimestampMs, b.TimestampMs); c != 0 {
		return c
	}
	if c := compareMissingLast(a.Seq, b.Seq); c != 0 {
		return c
	}
	if c := strings.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return strings.Compare(a.SessionKey, b.SessionKey)
}

// CompareEvents is Compare applied to events.
func CompareEvents(a, b Event) int {
	return Compare(a.Item(), b.Item())
}

func compareMissingLast(x, y float64) int {
	xf, yf := finite(x), finite(y)
	switch {
	case xf && yf:
		return cmp.Compare(x, y)
	case xf:
		return -1
	case yf:
		return 1
	default:
		return 0
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// SortEvents sorts events in place with Compare. The sort is stable so
// identical tuples keep their input order.
func SortEvents(events []Event) {
	slices.SortStableFunc(events, CompareEvents)
}

// Dedupe collapses events sharing a session and id. The first occurrence keeps its
// slot; later occurrences replace its payload (and kind, when set), the way
// an update would. Id-less events are kept as they are.
func Dedupe(events []Event) []Event {
	out := make([]Event, 0, len(events))
	seen := make(map[string]int, len(events))
	for _, ev := range events {
		if !ev.Patchable() {
			out = append(out, ev)
			continue
		}
		if i, ok := seen[ev.QualifiedID()]; ok {
			out[i].Payload = ev.Payload
			if ev.Kind != "" {
				out[i].Kind = ev.Kind
			}
			continue
		}
		seen[ev.QualifiedID()] = len(out)
		ev.Op = OpInsert
		out = append(out, ev)
	}
	return out
}
