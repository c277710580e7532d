package tui

import "charm.land/bubbles/v2/key"

// liveKeyMap defines key bindings for the live viewer.
type liveKeyMap struct {
	NextSession key.Binding
	PrevSession key.Binding
	AllSessions key.Binding
	Resync      key.Binding
	Bottom      key.Binding
	Quit        key.Binding

	// Filter toggles
	ToggleUser      key.Binding
	ToggleAssistant key.Binding
	ToggleTools     key.Binding
	ToggleThinking  key.Binding
	ToggleOther     key.Binding
}

func defaultLiveKeyMap() liveKeyMap {
	return liveKeyMap{
		NextSession: key.NewBinding(
			key.WithKeys("tab", "n"),
			key.WithHelp("tab", "next session"),
		),
		PrevSession: key.NewBinding(
			key.WithKeys("shift+tab", "p"),
			key.WithHelp("shift+tab", "previous session"),
		),
		AllSessions: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "all sessions"),
		),
		Resync: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "resync"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "follow"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),

		ToggleUser: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "toggle user"),
		),
		ToggleAssistant: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "toggle assistant"),
		),
		ToggleTools: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "toggle tools"),
		),
		ToggleThinking: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "toggle thinking"),
		),
		ToggleOther: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "toggle other"),
		),
	}
}
