package tui

import "github.com/wethinkt/thinkt-live/internal/transcript"

// KindFilterSet controls which event kinds are visible in the viewer.
type KindFilterSet struct {
	User      bool
	Assistant bool
	Thinking  bool
	Tools     bool // tool calls and tool output
	Other     bool // confirmations, system and unknown kinds
}

// NewKindFilterSet returns a filter set with every kind enabled.
func NewKindFilterSet() KindFilterSet {
	return KindFilterSet{
		User:      true,
		Assistant: true,
		Thinking:  true,
		Tools:     true,
		Other:     true,
	}
}

// Visible reports whether rows of kind k are shown.
func (f *KindFilterSet) Visible(k transcript.Kind) bool {
	switch k {
	case transcript.KindUser:
		return f.User
	case transcript.KindAssistant:
		return f.Assistant
	case transcript.KindThinking:
		return f.Thinking
	case transcript.KindToolCall, transcript.KindToolOutput:
		return f.Tools
	default:
		return f.Other
	}
}
