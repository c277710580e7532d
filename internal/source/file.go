package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// File serves history from a JSONL transcript, one event per line. It is
// re-read on every call so appended lines are picked up.
type File struct {
	path   string
	decode transcript.LineDecoder
}

// NewFile returns a file-backed source of native events.
func NewFile(path string) *File {
	return &File{path: path, decode: transcript.DecodeLine}
}

// NewFileWith returns a file-backed source whose lines are read by decode.
func NewFileWith(path string, decode transcript.LineDecoder) *File {
	if decode == nil {
		decode = transcript.DecodeLine
	}
	return &File{path: path, decode: decode}
}

// Path returns the transcript path.
func (f *File) Path() string { return f.path }

// ReadAll decodes every usable line of the file in file order.
func (f *File) ReadAll(ctx context.Context) ([]transcript.Event, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer fh.Close()

	var events []transcript.Event
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		decoded, err := f.decode(line)
		if err != nil {
			continue
		}
		events = append(events, decoded...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return events, nil
}

// FetchEvents returns the events of scope.
func (f *File) FetchEvents(ctx context.Context, scope string) ([]transcript.Event, error) {
	events, err := f.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	if scope == "" || scope == transcript.AllSessions {
		return events, nil
	}
	return slices.DeleteFunc(events, func(ev transcript.Event) bool {
		return ev.SessionKey != scope
	}), nil
}

// ListSessions summarizes the sessions found in the file, most recent first.
func (f *File) ListSessions(ctx context.Context) ([]transcript.SessionSummary, error) {
	events, err := f.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(events), nil
}

// Summarize builds a session directory from events, most recently seen
// first. Repeated ids count once.
func Summarize(events []transcript.Event) []transcript.SessionSummary {
	events = transcript.Dedupe(events)
	byKey := make(map[string]*transcript.SessionSummary)
	var order []string
	for _, ev := range events {
		s, ok := byKey[ev.SessionKey]
		if !ok {
			s = &transcript.SessionSummary{Key: ev.SessionKey}
			byKey[ev.SessionKey] = s
			order = append(order, ev.SessionKey)
		}
		s.Observe(ev)
	}
	out := make([]transcript.SessionSummary, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	SortSummaries(out)
	return out
}

// SortSummaries orders summaries by last-seen time, newest first, then key.
func SortSummaries(s []transcript.SessionSummary) {
	slices.SortStableFunc(s, func(a, b transcript.SessionSummary) int {
		switch {
		case a.LastSeenMs > b.LastSeenMs:
			return -1
		case a.LastSeenMs < b.LastSeenMs:
			return 1
		}
		if a.Key < b.Key {
			return -1
		}
		if a.Key > b.Key {
			return 1
		}
		return 0
	})
}
