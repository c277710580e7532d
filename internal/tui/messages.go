package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/wethinkt/thinkt-live/internal/live"
	"github.com/wethinkt/thinkt-live/internal/stream"
	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/view"
)

// Engine notifications, delivered to the program by Listener.
type statusMsg struct {
	status stream.Status
	err    error
}

type activatedMsg struct {
	key       string
	resyncing bool
}

type resyncMsg struct {
	scope string
	err   error
}

type directoryMsg struct {
	sessions []transcript.SessionSummary
}

type flushMsg struct{}

// Listener forwards engine notifications to a program, typically
// (*tea.Program).Send. It runs on the engine goroutine and never touches
// model state directly.
func Listener(send func(tea.Msg)) live.Listener {
	return live.Listener{
		OnStatus: func(status stream.Status, err error) {
			send(statusMsg{status: status, err: err})
		},
		OnActivate: func(key string, _ *view.View, resyncing bool) {
			send(activatedMsg{key: key, resyncing: resyncing})
		},
		OnResync: func(scope string, err error) {
			send(resyncMsg{scope: scope, err: err})
		},
		OnDirectory: func(sessions []transcript.SessionSummary) {
			send(directoryMsg{sessions: append([]transcript.SessionSummary(nil), sessions...)})
		},
		OnFlush: func() {
			send(flushMsg{})
		},
	}
}
