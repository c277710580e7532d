package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

func TestClient_FetchEventsScopesAndDropsBadElements(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/events" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("session")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"b","sessionKey":"s 1","ts":2},{"id":"x"},{"id":"a","sessionKey":"s 1","ts":1}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")
	events, err := c.FetchEvents(context.Background(), "s 1")
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "s 1" {
		t.Errorf("session query = %q, want %q", gotQuery, "s 1")
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(events) != 2 || events[0].ID != "b" {
		t.Errorf("events = %+v, want b and a in server order", events)
	}
}

func TestClient_FetchAllOmitsSessionFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	events, err := NewClient(srv.URL, "").FetchEvents(context.Background(), transcript.AllSessions)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("events = %v, want none", events)
	}
}

func TestClient_ErrorsAreReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sessions" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.FetchEvents(context.Background(), "s1"); err == nil {
		t.Error("expected error on 500")
	}
	if _, err := c.ListSessions(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ListSessions error = %v, want ErrUnauthorized", err)
	}
}

func TestClient_ListSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]transcript.SessionSummary{{Key: "s1", Title: "fix tests", Count: 3, LastSeenMs: 10}})
	}))
	defer srv.Close()

	sessions, err := NewClient(srv.URL, "").ListSessions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Title != "fix tests" || sessions[0].Count != 3 {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestClient_PushDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Push(context.Background(), []transcript.Event{{ID: "a", SessionKey: "s1"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_PushReportsAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		events, _, err := transcript.DecodeArray(mustRead(t, r.Body))
		if err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]int{"accepted": len(events)})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, "").Push(context.Background(), []transcript.Event{
		{ID: "a", SessionKey: "s1", Op: transcript.OpInsert},
		{ID: "b", SessionKey: "s1", Op: transcript.OpInsert},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Accepted != 2 || res.StatusCode != http.StatusAccepted {
		t.Errorf("result = %+v", res)
	}
}

func TestClient_FeedURL(t *testing.T) {
	tests := map[string]struct{ base, session, want string }{
		"plain":   {"http://localhost:8786", "", "ws://localhost:8786/v1/stream"},
		"tls":     {"https://example.com/", "all", "wss://example.com/v1/stream"},
		"session": {"http://h", "a b", "ws://h/v1/stream?session=a+b"},
	}
	for name, tt := range tests {
		if got := NewClient(tt.base, "").FeedURL(tt.session); got != tt.want {
			t.Errorf("%s: FeedURL() = %q, want %q", name, got, tt.want)
		}
	}
}

func mustRead(t *testing.T, r io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
