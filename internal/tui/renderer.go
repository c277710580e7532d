package tui

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/wethinkt/thinkt-live/internal/i18n"
	"github.com/wethinkt/thinkt-live/internal/transcript"
)

const maxThinkingRunes = 500

// Renderer turns events into styled rows. Assistant text is rendered as
// markdown with glamour; one term renderer is kept per wrap width.
type Renderer struct {
	mu     sync.Mutex
	styles *Styles
	style  string // glamour standard style
	md     *glamour.TermRenderer
	mdWrap int
}

// NewRenderer creates a renderer. glamourStyle is a glamour standard style
// name such as "dark" or "light".
func NewRenderer(styles *Styles, glamourStyle string) *Renderer {
	if glamourStyle == "" {
		glamourStyle = "dark"
	}
	return &Renderer{styles: styles, style: glamourStyle}
}

func (r *Renderer) markdown(text string, width int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.md == nil || r.mdWrap != width {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		r.md, r.mdWrap = md, width
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

// Render formats one event. showSession prefixes the label with the
// session key, for the aggregate view.
func (r *Renderer) Render(ev transcript.Event, width int, showSession bool) string {
	width = max(20, width)
	label := r.styles.Label(ev.Kind).Render(kindLabel(ev))
	if showSession {
		label = r.styles.Muted.Render(shortKey(ev.SessionKey)+" ") + label
	}
	if ts := ev.Time(); !ts.IsZero() {
		label += r.styles.Muted.Render("  " + ts.Format("15:04:05"))
	}

	body := rowBody(ev)
	switch ev.Kind {
	case transcript.KindAssistant:
		if body != "" {
			body = r.markdown(body, width-2)
		}
	case transcript.KindThinking:
		if runes := []rune(body); len(runes) > maxThinkingRunes {
			body = string(runes[:maxThinkingRunes]) + "..."
		}
	}
	if body == "" {
		return label
	}
	return label + "\n" + r.styles.Block(ev.Kind).Width(width).Render(body)
}

func kindLabel(ev transcript.Event) string {
	switch ev.Kind {
	case transcript.KindUser:
		return i18n.T("tui.kind.user", "User")
	case transcript.KindAssistant:
		return i18n.T("tui.kind.assistant", "Assistant")
	case transcript.KindThinking:
		return i18n.T("tui.kind.thinking", "Thinking")
	case transcript.KindToolCall:
		if name := payloadField(ev.Payload, "name"); name != "" {
			return i18n.T("tui.kind.tool", "Tool") + ": " + name
		}
		return i18n.T("tui.kind.tool", "Tool")
	case transcript.KindToolOutput:
		return i18n.T("tui.kind.toolResult", "Tool Result")
	case transcript.KindConfirmation:
		return i18n.T("tui.kind.confirm", "Confirm")
	case "":
		return i18n.T("tui.kind.event", "Event")
	default:
		return string(ev.Kind)
	}
}

// rowBody is the text shown under the label, followed by a placeholder for
// each attached image. Tool calls show their input instead of text.
func rowBody(ev transcript.Event) string {
	text := ev.Text()
	if ev.Kind == transcript.KindToolCall {
		text = payloadField(ev.Payload, "input")
	}
	if atts := payloadAttachments(ev.Payload); len(atts) > 0 {
		if text != "" {
			text += "\n"
		}
		text += attachmentSummary(atts)
	}
	return text
}

// payloadField returns a string field of an object payload, or the compact
// JSON of a non-string field.
func payloadField(payload json.RawMessage, name string) string {
	var obj map[string]json.RawMessage
	if json.Unmarshal(payload, &obj) != nil {
		return ""
	}
	raw, ok := obj[name]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

func shortKey(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
