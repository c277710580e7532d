package tui

import (
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/wethinkt/thinkt-live/internal/tui/theme"
)

func termSizeOpts() []tea.ProgramOption {
	var opts []tea.ProgramOption
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stdin.Fd()), int(os.Stderr.Fd())} {
		if term.IsTerminal(fd) {
			w, h, err := term.GetSize(fd)
			if err == nil && w > 0 && h > 0 {
				opts = append(opts, tea.WithWindowSize(w, h))
				break
			}
		}
	}
	return opts
}

// NewProgram creates the program running the live viewer.
func NewProgram(model LiveModel) *tea.Program {
	return tea.NewProgram(model, termSizeOpts()...)
}

// DefaultPresentation returns styles and a row renderer for the current
// theme. Light themes get the light markdown style.
func DefaultPresentation() (*Styles, *Renderer) {
	t := theme.Current()
	styles := NewStyles(t)
	glamourStyle := "dark"
	if t.Name == "light" {
		glamourStyle = "light"
	}
	return styles, NewRenderer(styles, glamourStyle)
}
