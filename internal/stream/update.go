// Package stream delivers transcript events from a live feed: a collector's
// websocket or NDJSON endpoint, or a local JSONL file being appended to.
package stream

import (
	"errors"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// Status is a connectivity transition of a feed.
type Status int

const (
	// StatusNone marks an update that carries an event.
	StatusNone Status = iota
	StatusConnected
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "none"
	}
}

// Update is either one event or one status change.
type Update struct {
	Event  transcript.Event
	Status Status
	Err    error
}

// IsStatus reports whether the update is a connectivity change.
func (u Update) IsStatus() bool { return u.Status != StatusNone }

// ErrFileRemoved ends a local tail when the file goes away.
var ErrFileRemoved = errors.New("transcript file removed")

func eventUpdate(ev transcript.Event) Update { return Update{Event: ev} }

func statusUpdate(s Status, err error) Update { return Update{Status: s, Err: err} }
