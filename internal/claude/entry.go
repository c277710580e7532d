// Package claude reads Claude Code JSONL transcripts as live events, so a
// session file can be watched without a collector.
package claude

import (
	"encoding/json"
	"strings"
)

// EntryType identifies the type of trace entry.
type EntryType string

const (
	EntryTypeUser                EntryType = "user"
	EntryTypeAssistant           EntryType = "assistant"
	EntryTypeSystem              EntryType = "system"
	EntryTypeProgress            EntryType = "progress"
	EntryTypeFileHistorySnapshot EntryType = "file-history-snapshot"
	EntryTypeSummary             EntryType = "summary"
	EntryTypeQueueOperation      EntryType = "queue-operation"
)

// Entry represents a single line in a Claude Code JSONL trace file. Only
// the fields the viewer shows are decoded.
type Entry struct {
	Type        EntryType       `json:"type"`
	UUID        string          `json:"uuid,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	CWD         string          `json:"cwd,omitempty"`
	IsSidechain bool            `json:"isSidechain,omitempty"`
	IsMeta      bool            `json:"isMeta,omitempty"`
	Message     json.RawMessage `json:"message,omitempty"`

	// System entries
	Subtype string `json:"subtype,omitempty"`
	Content string `json:"content,omitempty"`

	// Summary entries
	Summary  string `json:"summary,omitempty"`
	LeafUUID string `json:"leafUuid,omitempty"`
}

// UserMessage represents the message field for user entries.
type UserMessage struct {
	Role    string      `json:"role"`
	Content UserContent `json:"content"`
}

// UserContent handles the polymorphic content field in user messages.
// It can be either a plain string or an array of ContentBlock.
type UserContent struct {
	Text   string         // Set when content is a string
	Blocks []ContentBlock // Set when content is an array
}

func (c *UserContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		return nil
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(data, &blocks); err == nil {
		c.Blocks = blocks
	}
	// Unrecognized content is ignored.
	return nil
}

// AssistantMessage represents the message field for assistant entries.
type AssistantMessage struct {
	Role    string         `json:"role"`
	Model   string         `json:"model,omitempty"`
	ID      string         `json:"id,omitempty"`
	Content []ContentBlock `json:"content,omitempty"`
}

// ContentBlock represents a content block within a message.
// Different block types populate different fields.
type ContentBlock struct {
	Type string `json:"type"`

	// text block
	Text string `json:"text,omitempty"`

	// thinking block
	Thinking string `json:"thinking,omitempty"`

	// tool_use block
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result block
	ToolUseID   string          `json:"tool_use_id,omitempty"`
	ToolContent json.RawMessage `json:"content,omitempty"` // string or []ContentBlock
	IsError     bool            `json:"is_error,omitempty"`

	// image block
	Source *MediaSource `json:"source,omitempty"`
}

// MediaSource represents the source of an image content block.
type MediaSource struct {
	Type      string `json:"type,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
}

// resultText flattens a tool_result content field.
func (b ContentBlock) resultText() string {
	if len(b.ToolContent) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(b.ToolContent, &s) == nil {
		return s
	}
	var blocks []ContentBlock
	if json.Unmarshal(b.ToolContent, &blocks) != nil {
		return string(b.ToolContent)
	}
	var parts []string
	for _, inner := range blocks {
		if inner.Type == "text" && inner.Text != "" {
			parts = append(parts, inner.Text)
		}
	}
	return strings.Join(parts, "\n")
}
