package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/wethinkt/thinkt-live/internal/tui/theme"
)

// ThemeDisplay handles theme visualization in the terminal.
type ThemeDisplay struct {
	w     io.Writer
	theme theme.Theme
}

// NewThemeDisplay creates a new theme display formatter.
func NewThemeDisplay(w io.Writer, t theme.Theme) *ThemeDisplay {
	return &ThemeDisplay{w: w, theme: t}
}

// themeEntry represents a single theme color entry for display.
type themeEntry struct {
	Name       string
	Style      theme.Style
	Category   string
	SampleText string
}

// Show displays the theme with styled samples.
func (d *ThemeDisplay) Show() error {
	t := d.theme

	entries := []themeEntry{
		{Name: "Accent", Style: theme.Style{Fg: t.GetAccent()}, Category: "Chrome", SampleText: "▌Active Border"},
		{Name: "BorderInactive", Style: theme.Style{Fg: t.GetBorderInactive()}, Category: "Chrome", SampleText: "│ Inactive Border"},
		{Name: "Connected", Style: theme.Style{Fg: t.Connected}, Category: "Chrome", SampleText: "live"},
		{Name: "Disconnected", Style: theme.Style{Fg: t.Disconnected}, Category: "Chrome", SampleText: "disconnected"},

		{Name: "TextPrimary", Style: t.TextPrimary, Category: "Text", SampleText: "Primary Text"},
		{Name: "TextSecondary", Style: t.TextSecondary, Category: "Text", SampleText: "Secondary info text"},
		{Name: "TextMuted", Style: t.TextMuted, Category: "Text", SampleText: "Muted help text"},

		{Name: "UserBlock", Style: t.UserBlock, Category: "Blocks", SampleText: " User message "},
		{Name: "AssistantBlock", Style: t.AssistantBlock, Category: "Blocks", SampleText: " Assistant response "},
		{Name: "ThinkingBlock", Style: t.ThinkingBlock, Category: "Blocks", SampleText: " Thinking... "},
		{Name: "ToolCallBlock", Style: t.ToolCallBlock, Category: "Blocks", SampleText: " Tool: Read file "},
		{Name: "ToolOutputBlock", Style: t.ToolOutputBlock, Category: "Blocks", SampleText: " Result: success "},
		{Name: "ConfirmationBlock", Style: t.ConfirmationBlock, Category: "Blocks", SampleText: " Allow edit? "},

		{Name: "UserLabel", Style: t.UserLabel, Category: "Labels", SampleText: "USER"},
		{Name: "AssistantLabel", Style: t.AssistantLabel, Category: "Labels", SampleText: "ASSISTANT"},
		{Name: "ThinkingLabel", Style: t.ThinkingLabel, Category: "Labels", SampleText: "THINKING"},
		{Name: "ToolLabel", Style: t.ToolLabel, Category: "Labels", SampleText: "TOOL"},
		{Name: "ConfirmationLabel", Style: t.ConfirmationLabel, Category: "Labels", SampleText: "CONFIRM"},
		{Name: "OtherLabel", Style: t.OtherLabel, Category: "Labels", SampleText: "SYSTEM"},
	}

	themesDir, _ := theme.ThemesDir()
	fmt.Fprintf(d.w, "Theme:        %s\n", t.Name)
	if t.Description != "" {
		fmt.Fprintf(d.w, "Description:  %s\n", t.Description)
	}
	fmt.Fprintf(d.w, "Themes Dir:   %s\n\n", themesDir)

	categoryStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.GetAccent()))
	nameStyle := lipgloss.NewStyle().Width(20)
	colorStyle := lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color(t.TextMuted.Fg))

	currentCategory := ""
	for _, entry := range entries {
		if entry.Category != currentCategory {
			if currentCategory != "" {
				fmt.Fprintln(d.w)
			}
			fmt.Fprintf(d.w, "%s\n", categoryStyle.Render(entry.Category))
			fmt.Fprintf(d.w, "%s\n", strings.Repeat("─", len(entry.Category)+2))
			currentCategory = entry.Category
		}

		sample := lipgloss.NewStyle()
		if entry.Style.Fg != "" {
			sample = sample.Foreground(lipgloss.Color(entry.Style.Fg))
		}
		if entry.Style.Bg != "" {
			sample = sample.Background(lipgloss.Color(entry.Style.Bg))
		}
		sample = sample.Bold(entry.Style.Bold).Italic(entry.Style.Italic)

		color := entry.Style.Fg
		if entry.Style.Bg != "" {
			color = entry.Style.Bg
		}
		fmt.Fprintf(d.w, "  %s %s %s\n",
			nameStyle.Render(entry.Name),
			colorStyle.Render(color),
			sample.Render(entry.SampleText),
		)
	}

	fmt.Fprintln(d.w)
	return nil
}

// ShowJSON displays the theme as JSON, in the format user theme files use.
func (d *ThemeDisplay) ShowJSON() error {
	enc := json.NewEncoder(d.w)
	enc.SetIndent("", "  ")
	return enc.Encode(d.theme)
}

// ListThemes displays the built-in and user themes, marking the active one.
func ListThemes(w io.Writer, active string) error {
	if active == "" {
		active = "dark"
	}
	row := func(name string) {
		marker := "  "
		if name == active {
			marker = "* "
		}
		t, _ := theme.LoadByName(name)
		fmt.Fprintf(w, "%s%-16s %s\n", marker, name, t.Description)
	}

	fmt.Fprintln(w, "Built-in Themes:")
	for _, name := range theme.ListBuiltin() {
		row(name)
	}

	user, err := userThemes()
	if err != nil {
		return err
	}
	if len(user) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "User Themes:")
		for _, name := range user {
			row(name)
		}
	}
	return nil
}

func userThemes() ([]string, error) {
	dir, err := theme.ThemesDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read themes dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names, nil
}
