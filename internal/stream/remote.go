package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

const (
	maxReconnectDelay  = 30 * time.Second
	baseReconnectDelay = 1 * time.Second
)

// Feed describes a remote event feed. ws:// and wss:// URLs are read as a
// websocket carrying one JSON event per message; http:// and https:// URLs
// are read as newline-delimited JSON (SSE "data:" lines are accepted).
type Feed struct {
	URL   string
	Token string
	// Client is used for NDJSON feeds. Nil means a client without timeout.
	Client *http.Client
	// BaseDelay and MaxDelay bound the reconnect backoff.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Connect streams a remote feed with the default backoff.
// The token is sent as a Bearer Authorization header.
func Connect(ctx context.Context, feedURL, token string) (<-chan Update, error) {
	f := &Feed{URL: feedURL, Token: token}
	return f.Stream(ctx)
}

// Stream connects to the feed and reconnects with exponential backoff until
// ctx is cancelled. A StatusDisconnected update is sent whenever an
// established connection drops or the first dial fails, and
// StatusConnected whenever a connection is established. The channel is
// closed when ctx is done.
func (f *Feed) Stream(ctx context.Context) (<-chan Update, error) {
	u, err := url.Parse(f.URL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return nil, fmt.Errorf("unsupported feed scheme %q", u.Scheme)
	}

	ch := make(chan Update, 64)
	go f.loop(ctx, u.Scheme, ch)
	return ch, nil
}

func (f *Feed) delays() (time.Duration, time.Duration) {
	base, ceiling := f.BaseDelay, f.MaxDelay
	if base <= 0 {
		base = baseReconnectDelay
	}
	if ceiling <= 0 {
		ceiling = maxReconnectDelay
	}
	return base, ceiling
}

func (f *Feed) loop(ctx context.Context, scheme string, ch chan<- Update) {
	defer close(ch)
	defer feedConnected.Set(0)

	base, maxDelay := f.delays()
	consecutiveFails := 0
	everConnected := false
	reported := false // a disconnect has been sent for the current outage

	for {
		if ctx.Err() != nil {
			return
		}

		c := &conn{ch: ch, onConnect: func() {
			if everConnected {
				reconnectsTotal.Inc()
			}
			everConnected = true
			reported = false
			consecutiveFails = 0
			feedConnected.Set(1)
		}}
		var err error
		if scheme == "ws" || scheme == "wss" {
			err = f.readWebsocket(ctx, c)
		} else {
			err = f.readNDJSON(ctx, c)
		}
		feedConnected.Set(0)
		if ctx.Err() != nil {
			return
		}

		consecutiveFails++
		tuilog.Log.Warn("Live feed disconnected", "error", err, "failures", consecutiveFails)
		if !reported {
			reported = true
			if !send(ctx, ch, statusUpdate(StatusDisconnected, err)) {
				return
			}
		}

		delay := time.Duration(float64(base) * math.Pow(2, float64(min(consecutiveFails-1, 5))))
		if delay > maxDelay {
			delay = maxDelay
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

// conn is the per-connection state shared by both wire formats.
type conn struct {
	ch        chan<- Update
	onConnect func()
	// decode defaults to transcript.DecodeLine.
	decode transcript.LineDecoder
}

func (c *conn) connected(ctx context.Context) bool {
	c.onConnect()
	return send(ctx, c.ch, statusUpdate(StatusConnected, nil))
}

// record decodes and forwards one record. Malformed records are dropped.
func (c *conn) record(ctx context.Context, data []byte) bool {
	decode := c.decode
	if decode == nil {
		decode = transcript.DecodeLine
	}
	events, err := decode(data)
	if err != nil {
		recordsTotal.WithLabelValues("malformed").Inc()
		tuilog.Log.Debug("Dropped malformed feed record", "error", err)
		return true
	}
	recordsTotal.WithLabelValues("ok").Inc()
	for _, ev := range events {
		if !send(ctx, c.ch, eventUpdate(ev)) {
			return false
		}
	}
	return true
}

func send(ctx context.Context, ch chan<- Update, u Update) bool {
	select {
	case ch <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

func (f *Feed) header() http.Header {
	h := http.Header{}
	if f.Token != "" {
		h.Set("Authorization", "Bearer "+f.Token)
	}
	return h
}

func (f *Feed) readWebsocket(ctx context.Context, c *conn) error {
	ws, _, err := websocket.Dial(ctx, f.URL, &websocket.DialOptions{HTTPHeader: f.header()})
	if err != nil {
		return err
	}
	defer ws.CloseNow()
	ws.SetReadLimit(4 << 20)

	if !c.connected(ctx) {
		return ctx.Err()
	}
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return err
		}
		if !c.record(ctx, data) {
			ws.Close(websocket.StatusNormalClosure, "client closing")
			return ctx.Err()
		}
	}
}

func (f *Feed) readNDJSON(ctx context.Context, c *conn) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return err
	}
	req.Header = f.header()
	req.Header.Set("Accept", "application/x-ndjson")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed returned %s", resp.Status)
	}

	if !c.connected(ctx) {
		return ctx.Err()
	}
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && !skipLine(line) {
			if !c.record(ctx, line) {
				return ctx.Err()
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
}

// skipLine reports lines that carry no record: blanks and SSE framing.
func skipLine(line []byte) bool {
	s := strings.TrimSpace(string(line))
	switch {
	case s == "":
		return true
	case strings.HasPrefix(s, ":"),
		strings.HasPrefix(s, "event:"),
		strings.HasPrefix(s, "id:"),
		strings.HasPrefix(s, "retry:"):
		return true
	}
	return false
}
