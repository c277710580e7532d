package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tui/theme"
)

const defaultTailWidth = 100

// TailPrinter is a view.Hook that prints rows as plain lines. A terminal
// cannot reorder printed lines, so late inserts are printed where they
// arrive and marked with their position.
type TailPrinter struct {
	mu          sync.Mutex
	w           io.Writer
	width       int
	color       bool
	showSession bool
	title       cases.Caser
	theme       theme.Theme
	// printed holds the last printed payload per row key, so a resync
	// that rebuilds the view does not print unchanged rows again.
	printed map[string]string
}

// TailOptions configure a TailPrinter.
type TailOptions struct {
	// Width truncates lines; 0 detects the terminal width.
	Width int
	// Color forces styling on or off; nil styles only terminals.
	Color *bool
	// ShowSession prefixes every line with its session key.
	ShowSession bool
}

// NewTailPrinter creates a printer writing to w.
func NewTailPrinter(w io.Writer, opts TailOptions) *TailPrinter {
	isTerm := false
	width := opts.Width
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		isTerm = true
		if width == 0 {
			if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
				width = tw
			}
		}
	}
	if width <= 0 {
		width = defaultTailWidth
	}
	color := isTerm
	if opts.Color != nil {
		color = *opts.Color
	}
	return &TailPrinter{
		w:           w,
		width:       width,
		color:       color,
		showSession: opts.ShowSession,
		title:       cases.Title(language.English),
		theme:       theme.Current(),
		printed:     make(map[string]string),
	}
}

// Insert implements view.Hook.
func (p *TailPrinter) Insert(id string, ev transcript.Event, beforeID string) {
	marker := "+"
	if beforeID != "" {
		marker = "^"
	}
	p.print(id, marker, ev)
}

// Patch implements view.Hook.
func (p *TailPrinter) Patch(id string, ev transcript.Event) {
	p.print(id, "~", ev)
}

// Remove implements view.Hook. Printed lines stay on screen.
func (p *TailPrinter) Remove(string) {}

func (p *TailPrinter) print(row, marker string, ev transcript.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.Patchable() {
		sig := string(ev.Kind) + "\x00" + string(ev.Payload)
		if prev, ok := p.printed[row]; ok && prev == sig {
			return
		}
		p.printed[row] = sig
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString(" ")
	if ts := ev.Time(); !ts.IsZero() {
		b.WriteString(ts.Format("15:04:05"))
		b.WriteString(" ")
	}
	if p.showSession {
		b.WriteString("[" + ev.SessionKey + "] ")
	}
	label := p.KindLabel(ev.Kind)
	if p.color {
		label = lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.theme.Label(ev.Kind).Fg)).
			Bold(true).
			Render(label)
	}
	b.WriteString(label)
	if text := oneLine(ev.Text()); text != "" {
		b.WriteString(": ")
		b.WriteString(text)
	}

	line := ansi.Truncate(b.String(), p.width, "…")
	fmt.Fprintln(p.w, line)
}

// KindLabel renders a kind for humans, e.g. "tool_call" as "Tool Call".
func (p *TailPrinter) KindLabel(k transcript.Kind) string {
	if k == "" {
		return "Event"
	}
	return p.title.String(strings.ReplaceAll(string(k), "_", " "))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
