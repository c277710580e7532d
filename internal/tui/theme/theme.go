// Package theme provides theming support for the TUI.
package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/wethinkt/thinkt-live/internal/config"
	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// Style defines colors and text attributes for a UI element.
type Style struct {
	Fg        string `json:"fg,omitempty"`
	Bg        string `json:"bg,omitempty"`
	Bold      bool   `json:"bold,omitempty"`
	Italic    bool   `json:"italic,omitempty"`
	Underline bool   `json:"underline,omitempty"`
}

// Theme defines all styles used in the TUI.
type Theme struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	// UI chrome
	Accent         string `json:"accent,omitempty"`
	BorderActive   string `json:"border_active,omitempty"`
	BorderInactive string `json:"border_inactive,omitempty"`
	Connected      string `json:"connected,omitempty"`
	Disconnected   string `json:"disconnected,omitempty"`

	TextPrimary   Style `json:"text_primary,omitempty"`
	TextSecondary Style `json:"text_secondary,omitempty"`
	TextMuted     Style `json:"text_muted,omitempty"`

	// Transcript rows, one label and block style per event kind
	UserBlock         Style `json:"user_block,omitempty"`
	AssistantBlock    Style `json:"assistant_block,omitempty"`
	ThinkingBlock     Style `json:"thinking_block,omitempty"`
	ToolCallBlock     Style `json:"tool_call_block,omitempty"`
	ToolOutputBlock   Style `json:"tool_output_block,omitempty"`
	ConfirmationBlock Style `json:"confirmation_block,omitempty"`

	UserLabel         Style `json:"user_label,omitempty"`
	AssistantLabel    Style `json:"assistant_label,omitempty"`
	ThinkingLabel     Style `json:"thinking_label,omitempty"`
	ToolLabel         Style `json:"tool_label,omitempty"`
	ConfirmationLabel Style `json:"confirmation_label,omitempty"`
	OtherLabel        Style `json:"other_label,omitempty"`
}

var builtin = map[string]Theme{
	"dark": {
		Name:           "dark",
		Description:    "Default dark theme",
		Accent:         "#7D56F4",
		BorderInactive: "#444444",
		Connected:      "#7fcc5a",
		Disconnected:   "#ff6b6b",
		TextPrimary:    Style{Fg: "#e6e6e6"},
		TextSecondary:  Style{Fg: "#a8a8a8"},
		TextMuted:      Style{Fg: "#6c6c6c"},

		UserBlock:         Style{Fg: "#e6e6e6", Bg: "#1f2a36"},
		AssistantBlock:    Style{Fg: "#e6e6e6"},
		ThinkingBlock:     Style{Fg: "#9a9a9a", Italic: true},
		ToolCallBlock:     Style{Fg: "#c9b8ff"},
		ToolOutputBlock:   Style{Fg: "#a8a8a8"},
		ConfirmationBlock: Style{Fg: "#ffd27f", Bg: "#3a2e12"},

		UserLabel:         Style{Fg: "#5fafff", Bold: true},
		AssistantLabel:    Style{Fg: "#7fcc5a", Bold: true},
		ThinkingLabel:     Style{Fg: "#8a8a8a", Italic: true},
		ToolLabel:         Style{Fg: "#b48cff", Bold: true},
		ConfirmationLabel: Style{Fg: "#ffaf00", Bold: true},
		OtherLabel:        Style{Fg: "#6c6c6c"},
	},
	"light": {
		Name:           "light",
		Description:    "Light theme for bright terminals",
		Accent:         "#5a3fd1",
		BorderInactive: "#bcbcbc",
		Connected:      "#2e8b2e",
		Disconnected:   "#c62828",
		TextPrimary:    Style{Fg: "#1c1c1c"},
		TextSecondary:  Style{Fg: "#4e4e4e"},
		TextMuted:      Style{Fg: "#8a8a8a"},

		UserBlock:         Style{Fg: "#1c1c1c", Bg: "#e4eef8"},
		AssistantBlock:    Style{Fg: "#1c1c1c"},
		ThinkingBlock:     Style{Fg: "#6c6c6c", Italic: true},
		ToolCallBlock:     Style{Fg: "#5a3fd1"},
		ToolOutputBlock:   Style{Fg: "#4e4e4e"},
		ConfirmationBlock: Style{Fg: "#5c3b00", Bg: "#fff1d0"},

		UserLabel:         Style{Fg: "#005fd7", Bold: true},
		AssistantLabel:    Style{Fg: "#2e8b2e", Bold: true},
		ThinkingLabel:     Style{Fg: "#6c6c6c", Italic: true},
		ToolLabel:         Style{Fg: "#5a3fd1", Bold: true},
		ConfirmationLabel: Style{Fg: "#af5f00", Bold: true},
		OtherLabel:        Style{Fg: "#8a8a8a"},
	},
}

// DefaultTheme returns the built-in dark theme.
func DefaultTheme() Theme {
	return builtin["dark"]
}

// ListBuiltin returns the names of the built-in themes.
func ListBuiltin() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ThemesDir returns the directory holding user themes.
func ThemesDir() (string, error) {
	configDir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "themes"), nil
}

// LoadByName loads a theme by name, checking user themes first, then the
// built-in ones. A user theme starts from the dark theme, so it only needs
// the fields it changes.
func LoadByName(name string) (Theme, error) {
	if name == "" {
		return DefaultTheme(), nil
	}
	if themesDir, err := ThemesDir(); err == nil {
		data, err := os.ReadFile(filepath.Join(themesDir, name+".json"))
		if err == nil {
			t := DefaultTheme()
			if err := json.Unmarshal(data, &t); err != nil {
				return DefaultTheme(), fmt.Errorf("parse theme %s: %w", name, err)
			}
			t.Name = name
			return t, nil
		}
	}

	if t, ok := builtin[strings.ToLower(name)]; ok {
		return t, nil
	}
	return DefaultTheme(), fmt.Errorf("unknown theme %q", name)
}

var (
	mu      sync.Mutex
	current *Theme
)

// Current returns the configured theme, loading it on first use. Any
// failure falls back to the dark theme.
func Current() Theme {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		cfg, _ := config.Load()
		t, _ := LoadByName(cfg.Theme)
		current = &t
	}
	return *current
}

// Set makes t the current theme for this process.
func Set(t Theme) {
	mu.Lock()
	current = &t
	mu.Unlock()
}

// GetAccent returns the accent color, with fallback.
func (t Theme) GetAccent() string {
	if t.Accent != "" {
		return t.Accent
	}
	return "#7D56F4"
}

// GetBorderActive returns the active border color.
func (t Theme) GetBorderActive() string {
	if t.BorderActive != "" {
		return t.BorderActive
	}
	return t.GetAccent()
}

// GetBorderInactive returns the inactive border color.
func (t Theme) GetBorderInactive() string {
	if t.BorderInactive != "" {
		return t.BorderInactive
	}
	return "#444444"
}

// Label returns the label style of an event kind.
func (t Theme) Label(k transcript.Kind) Style {
	switch k {
	case transcript.KindUser:
		return t.UserLabel
	case transcript.KindAssistant:
		return t.AssistantLabel
	case transcript.KindThinking:
		return t.ThinkingLabel
	case transcript.KindToolCall, transcript.KindToolOutput:
		return t.ToolLabel
	case transcript.KindConfirmation:
		return t.ConfirmationLabel
	default:
		return t.OtherLabel
	}
}

// Block returns the body style of an event kind.
func (t Theme) Block(k transcript.Kind) Style {
	switch k {
	case transcript.KindUser:
		return t.UserBlock
	case transcript.KindAssistant:
		return t.AssistantBlock
	case transcript.KindThinking:
		return t.ThinkingBlock
	case transcript.KindToolCall:
		return t.ToolCallBlock
	case transcript.KindToolOutput:
		return t.ToolOutputBlock
	case transcript.KindConfirmation:
		return t.ConfirmationBlock
	default:
		return t.TextSecondary
	}
}
