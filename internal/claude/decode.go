package claude

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// NewDecoder returns a line decoder for Claude Code entries. Entries without
// a sessionId (summaries) are keyed by fallbackSession, usually the file's
// base name, which Claude Code sets to the session id.
func NewDecoder(fallbackSession string) transcript.LineDecoder {
	return func(line []byte) ([]transcript.Event, error) {
		return DecodeEntry(line, fallbackSession)
	}
}

// LooksLikeEntry reports whether line is a Claude Code entry rather than a
// native event.
func LooksLikeEntry(line []byte) bool {
	var probe struct {
		Type      string `json:"type"`
		Kind      string `json:"kind"`
		UUID      string `json:"uuid"`
		SessionID string `json:"sessionId"`
		LeafUUID  string `json:"leafUuid"`
	}
	if json.Unmarshal(bytes.TrimSpace(line), &probe) != nil {
		return false
	}
	return probe.Type != "" && probe.Kind == "" &&
		(probe.UUID != "" || probe.SessionID != "" || probe.LeafUUID != "")
}

// DecodeEntry converts one entry into events, one per content block.
// Entries the viewer does not show (progress, snapshots, queue operations,
// meta prompts) yield no events.
func DecodeEntry(line []byte, fallbackSession string) ([]transcript.Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}
	var e Entry
	if err := json.Unmarshal(line, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", transcript.ErrMalformed, err)
	}
	session := e.SessionID
	if session == "" {
		session = fallbackSession
	}
	if session == "" {
		return nil, fmt.Errorf("%w: missing session key", transcript.ErrMalformed)
	}

	b := &builder{id: e.UUID, session: session, ts: parseTimestamp(e.Timestamp)}
	switch e.Type {
	case EntryTypeUser:
		if e.IsMeta {
			return nil, nil
		}
		var msg UserMessage
		if err := json.Unmarshal(e.Message, &msg); err != nil {
			return nil, fmt.Errorf("%w: user message: %v", transcript.ErrMalformed, err)
		}
		b.user(msg.Content)
	case EntryTypeAssistant:
		var msg AssistantMessage
		if err := json.Unmarshal(e.Message, &msg); err != nil {
			return nil, fmt.Errorf("%w: assistant message: %v", transcript.ErrMalformed, err)
		}
		b.assistant(msg)
	case EntryTypeSystem:
		if e.Content != "" {
			b.add(transcript.KindSystem, map[string]any{"text": e.Content, "subtype": e.Subtype})
		}
	case EntryTypeSummary:
		if e.Summary != "" {
			b.id = "summary-" + e.LeafUUID
			b.add(transcript.KindSystem, map[string]any{"text": "Summary: " + e.Summary})
		}
	}
	return b.events, nil
}

type builder struct {
	id      string
	session string
	ts      float64
	events  []transcript.Event
}

// add appends an event. Blocks after the first get "<uuid>#<n>" ids and
// their block index as seq, so they keep their order within the entry.
func (b *builder) add(kind transcript.Kind, payload map[string]any) {
	n := len(b.events)
	id := b.id
	if id != "" && n > 0 {
		id = fmt.Sprintf("%s#%d", b.id, n)
	}
	raw, _ := json.Marshal(payload)
	b.events = append(b.events, transcript.Event{
		ID:          id,
		SessionKey:  b.session,
		TimestampMs: b.ts,
		Seq:         float64(n),
		Kind:        kind,
		Op:          transcript.OpInsert,
		Payload:     raw,
	})
}

func (b *builder) user(c UserContent) {
	if c.Text != "" {
		b.add(transcript.KindUser, map[string]any{"text": c.Text})
		return
	}

	var texts []string
	var images []map[string]string
	for _, block := range c.Blocks {
		switch block.Type {
		case "text":
			if block.Text != "" {
				texts = append(texts, block.Text)
			}
		case "image":
			if block.Source != nil {
				images = append(images, map[string]string{
					"media_type": block.Source.MediaType,
					"data":       block.Source.Data,
				})
			}
		}
	}
	if len(texts) > 0 || len(images) > 0 {
		payload := map[string]any{"text": strings.Join(texts, "\n")}
		if len(images) > 0 {
			payload["images"] = images
		}
		b.add(transcript.KindUser, payload)
	}

	for _, block := range c.Blocks {
		if block.Type == "tool_result" {
			b.add(transcript.KindToolOutput, map[string]any{
				"tool_use_id": block.ToolUseID,
				"output":      block.resultText(),
				"is_error":    block.IsError,
			})
		}
	}
}

func (b *builder) assistant(msg AssistantMessage) {
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				b.add(transcript.KindAssistant, map[string]any{"text": block.Text, "model": msg.Model})
			}
		case "thinking":
			if block.Thinking != "" {
				b.add(transcript.KindThinking, map[string]any{"thinking": block.Thinking})
			}
		case "tool_use":
			b.add(transcript.KindToolCall, map[string]any{"id": block.ID, "name": block.Name, "input": block.Input})
		}
	}
}

func parseTimestamp(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return math.NaN()
	}
	return float64(t.UnixMilli())
}
