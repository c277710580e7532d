package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func next(t *testing.T, ctx context.Context, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return u
	case <-ctx.Done():
		t.Fatal("timed out waiting for update")
	}
	return Update{}
}

func TestConnect_WebsocketDropsMalformedRecords(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Log("accept error:", err)
			return
		}
		defer conn.CloseNow() //nolint:errcheck

		for _, msg := range []string{
			`{"id":"a","sessionKey":"s1","ts":100,"seq":1,"kind":"user","payload":"hi"}`,
			`not json`,
			`{"id":"b"}`,
			`{"id":"b","sessionKey":"s1","ts":101,"op":"update","payload":"x"}`,
		} {
			_ = conn.Write(r.Context(), websocket.MessageText, []byte(msg))
		}
		time.Sleep(500 * time.Millisecond)
		conn.Close(websocket.StatusNormalClosure, "done")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := Connect(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), "secret")
	if err != nil {
		t.Fatal(err)
	}

	if u := next(t, ctx, ch); u.Status != StatusConnected {
		t.Fatalf("first update = %+v, want connected", u)
	}
	first := next(t, ctx, ch)
	if first.IsStatus() || first.Event.ID != "a" {
		t.Fatalf("first event = %+v, want a", first)
	}
	second := next(t, ctx, ch)
	if second.Event.ID != "b" || !second.Event.IsUpdate() {
		t.Fatalf("second event = %+v, want update b", second)
	}
	if got := gotAuth.Load(); got != "Bearer secret" {
		t.Errorf("Authorization = %v, want Bearer secret", got)
	}
}

func TestFeed_ReportsDisconnectThenReconnect(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := conns.Add(1)
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintf(w, "{\"id\":\"e%d\",\"sessionKey\":\"s1\",\"ts\":%d}\n", n, n)
		w.(http.Flusher).Flush()
		// Returning ends the response, which the client sees as a drop.
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f := &Feed{URL: srv.URL, BaseDelay: 10 * time.Millisecond, MaxDelay: 20 * time.Millisecond}
	ch, err := f.Stream(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var seq []string
	for len(seq) < 6 {
		u := next(t, ctx, ch)
		if u.IsStatus() {
			seq = append(seq, u.Status.String())
		} else {
			seq = append(seq, u.Event.ID)
		}
	}
	want := []string{"connected", "e1", "disconnected", "connected", "e2", "disconnected"}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("updates = %v, want %v", seq, want)
		}
	}
}

func TestFeed_NDJSONAcceptsSSEFraming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ": keepalive\n\nevent: message\ndata: {\"id\":\"x\",\"sessionKey\":\"s2\"}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := Connect(ctx, srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	next(t, ctx, ch) // connected
	if u := next(t, ctx, ch); u.Event.ID != "x" || u.Event.SessionKey != "s2" {
		t.Errorf("event = %+v, want x in s2", u.Event)
	}
}

func TestConnect_RejectsUnknownScheme(t *testing.T) {
	if _, err := Connect(context.Background(), "ftp://example.com/feed", ""); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func TestSkipLine(t *testing.T) {
	for line, want := range map[string]bool{
		"":                  true,
		"   \n":             true,
		": ping":            true,
		"event: message":    true,
		"retry: 1000":       true,
		`data: {"id":"a"}`:  false,
		`{"id":"a"}`:        false,
	} {
		if got := skipLine([]byte(line)); got != want {
			t.Errorf("skipLine(%q) = %v, want %v", line, got, want)
		}
	}
}
