// Package collect implements the collector server: the source of truth the
// live viewer resyncs from. It ingests transcript events, keeps them in an
// event store, serves full fetches and the session directory, and fans new
// events out to live feed subscribers.
package collect

import (
	"context"
	"errors"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

// Default configuration values for the collector.
const (
	DefaultPort         = 8786
	DefaultHost         = "localhost"
	DefaultMaxBodyBytes = 8 << 20
)

// ServerConfig holds configuration for the collector server.
type ServerConfig struct {
	Port         int
	Host         string
	Token        string // bearer token for auth
	Quiet        bool
	MaxBodyBytes int64
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         DefaultPort,
		Host:         DefaultHost,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// IngestResponse is returned by POST /v1/events.
type IngestResponse struct {
	Accepted int    `json:"accepted"`
	Dropped  int    `json:"dropped,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("event store closed")

// EventStore is the storage interface for the collector.
//
// Append applies events in order with upsert semantics: an event whose id
// is already stored replaces that item's payload in place; anything else
// becomes a new item. It returns the events as stored, which is what live
// subscribers receive.
type EventStore interface {
	Append(ctx context.Context, project string, events []transcript.Event) ([]transcript.Event, error)
	// Events returns the stored items of one session, or of every session
	// for transcript.AllSessions, in no particular order.
	Events(ctx context.Context, session string) ([]transcript.Event, error)
	// Sessions returns the session directory.
	Sessions(ctx context.Context) ([]transcript.SessionSummary, error)
	Close() error
}
