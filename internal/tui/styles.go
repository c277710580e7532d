package tui

import (
	"charm.land/lipgloss/v2"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tui/theme"
)

// Styles holds all the computed lipgloss styles for the TUI.
type Styles struct {
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style

	Title        lipgloss.Style
	Info         lipgloss.Style
	Help         lipgloss.Style
	Muted        lipgloss.Style
	Connected    lipgloss.Style
	Disconnected lipgloss.Style
	Error        lipgloss.Style

	// Session list
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	theme theme.Theme
}

// NewStyles builds styles from a theme.
func NewStyles(t theme.Theme) *Styles {
	return &Styles{
		ActiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.GetBorderActive())),

		InactiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.GetBorderInactive())),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.GetAccent())),
		Info:         applyStyle(lipgloss.NewStyle(), t.TextSecondary),
		Help:         applyStyle(lipgloss.NewStyle(), t.TextMuted),
		Muted:        applyStyle(lipgloss.NewStyle(), t.TextMuted),
		Connected:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Connected)),
		Disconnected: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Disconnected)),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Disconnected)).Bold(true),

		ListItem: applyStyle(lipgloss.NewStyle(), t.TextPrimary).Padding(0, 1),
		ListSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.GetAccent())).
			Bold(true).
			Padding(0, 1),

		theme: t,
	}
}

// Label returns the row label style of kind.
func (s *Styles) Label(k transcript.Kind) lipgloss.Style {
	return applyStyle(lipgloss.NewStyle(), s.theme.Label(k))
}

// Block returns the row body style of kind.
func (s *Styles) Block(k transcript.Kind) lipgloss.Style {
	return applyStyle(lipgloss.NewStyle(), s.theme.Block(k)).Padding(0, 1).MarginBottom(1)
}

// applyStyle applies a theme.Style to a lipgloss.Style builder.
func applyStyle(s lipgloss.Style, ts theme.Style) lipgloss.Style {
	if ts.Fg != "" {
		s = s.Foreground(lipgloss.Color(ts.Fg))
	}
	if ts.Bg != "" {
		s = s.Background(lipgloss.Color(ts.Bg))
	}
	if ts.Bold {
		s = s.Bold(true)
	}
	if ts.Italic {
		s = s.Italic(true)
	}
	if ts.Underline {
		s = s.Underline(true)
	}
	return s
}
