// Package source reads the authoritative event history that the viewer
// resyncs from: a collector over HTTP, or a JSONL transcript file.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	requestTimeout = 30 * time.Second
	maxErrorBody   = 1024
)

// ErrUnauthorized is returned when the collector rejects the token.
var ErrUnauthorized = errors.New("collector rejected token")

// Fetcher is what the viewer engine needs from a source of truth.
type Fetcher interface {
	FetchEvents(ctx context.Context, scope string) ([]transcript.Event, error)
	ListSessions(ctx context.Context) ([]transcript.SessionSummary, error)
}

// Client talks to a collector's HTTP API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a client for the collector at baseURL
// (for example http://localhost:8786).
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// BaseURL returns the collector address.
func (c *Client) BaseURL() string { return c.baseURL }

// FeedURL returns the websocket feed address, optionally filtered to one
// session.
func (c *Client) FeedURL(session string) string {
	u := c.baseURL + "/v1/stream"
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	if session != "" && session != transcript.AllSessions {
		u += "?session=" + url.QueryEscape(session)
	}
	return u
}

// FetchEvents returns the unordered event history of scope, a session key
// or transcript.AllSessions. Malformed elements are dropped.
func (c *Client) FetchEvents(ctx context.Context, scope string) ([]transcript.Event, error) {
	defer tuilog.Log.Timed("fetch events " + scope)()
	path := "/v1/events"
	if scope != "" && scope != transcript.AllSessions {
		path += "?session=" + url.QueryEscape(scope)
	}
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch events %s: %w", scope, err)
	}
	events, dropped, err := transcript.DecodeArray(body)
	if err != nil {
		return nil, fmt.Errorf("decode events %s: %w", scope, err)
	}
	if dropped > 0 {
		tuilog.Log.Debug("Dropped malformed history records", "scope", scope, "dropped", dropped)
	}
	return events, nil
}

// ListSessions returns the session directory.
func (c *Client) ListSessions(ctx context.Context) ([]transcript.SessionSummary, error) {
	body, err := c.get(ctx, "/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var sessions []transcript.SessionSummary
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

// Health checks that the collector is reachable.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "/v1/health")
	return err
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return fmt.Errorf("collector returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// PushResult summarizes one Push call.
type PushResult struct {
	Accepted   int
	StatusCode int
	Duration   time.Duration
}

// Push sends events to the collector's ingest endpoint with retry and
// exponential backoff. Client errors other than 429 are not retried.
func (c *Client) Push(ctx context.Context, events []transcript.Event) (*PushResult, error) {
	body, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}

	start := time.Now()
	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			tuilog.Log.Debug("Retrying push", "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/events", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.authorize(req)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		var ack struct {
			Accepted int `json:"accepted"`
		}
		statusErr := checkStatus(resp)
		if statusErr == nil {
			_ = json.NewDecoder(resp.Body).Decode(&ack)
		}
		resp.Body.Close()

		if statusErr == nil {
			return &PushResult{Accepted: ack.Accepted, StatusCode: resp.StatusCode, Duration: time.Since(start)}, nil
		}
		lastErr = statusErr
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			break
		}
	}
	return nil, lastErr
}
