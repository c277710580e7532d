package collect

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

// handleIngest processes POST /v1/events. The body is a JSON array, a
// single event object, or NDJSON. Malformed records are dropped
// individually; ?project= tags the sessions touched.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { ingestDurationSeconds.Observe(time.Since(start).Seconds()) }()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ingestRequestsTotal.WithLabelValues("too_large").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", "Request body too large")
			return
		}
		ingestRequestsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "read_error", "Failed to read request body")
		return
	}

	events, malformed, err := decodeIngestBody(body)
	if err != nil {
		ingestRequestsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "invalid_json", "Failed to parse request body")
		return
	}

	events, invalid := NormalizeEvents(events, time.Now())
	dropped := malformed + invalid
	if dropped > 0 {
		ingestDroppedTotal.Add(float64(dropped))
		tuilog.Log.Info("Dropped invalid events during ingest", "dropped", dropped)
	}

	if len(events) == 0 {
		ingestRequestsTotal.WithLabelValues("empty").Inc()
		writeJSON(w, http.StatusOK, IngestResponse{Dropped: dropped, Message: "all events dropped during validation"})
		return
	}

	project := strings.TrimSpace(r.URL.Query().Get("project"))
	if _, err := s.append(r, project, events); err != nil {
		ingestRequestsTotal.WithLabelValues("error").Inc()
		tuilog.Log.Error("Failed to store events", "events", len(events), "error", err)
		writeError(w, http.StatusInternalServerError, "ingest_error", "Failed to store events")
		return
	}

	ingestRequestsTotal.WithLabelValues("ok").Inc()
	tuilog.Log.Debug("Ingested events", "events", len(events), "dropped", dropped)
	writeJSON(w, http.StatusOK, IngestResponse{Accepted: len(events), Dropped: dropped})
}

// append stores events and publishes what was stored. The write lock keeps
// the live feed in the same order as the store.
func (s *Server) append(r *http.Request, project string, events []transcript.Event) ([]transcript.Event, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stored, err := s.store.Append(r.Context(), project, events)
	if err != nil {
		return nil, err
	}
	for _, ev := range stored {
		ingestEventsTotal.WithLabelValues(string(ev.Op)).Inc()
	}
	s.broker.Publish(stored)
	return stored, nil
}

// decodeIngestBody parses a JSON array, one JSON object, or NDJSON.
func decodeIngestBody(body []byte) ([]transcript.Event, int, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, 0, nil
	}
	if trimmed[0] == '[' {
		return transcript.DecodeArray(trimmed)
	}
	if trimmed[0] == '{' && json.Valid(trimmed) {
		ev, err := transcript.DecodeRecord(trimmed)
		if err != nil {
			return nil, 1, nil
		}
		return []transcript.Event{ev}, 0, nil
	}

	var events []transcript.Event
	dropped := 0
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 64*1024), len(trimmed)+1)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, err := transcript.DecodeRecord(line)
		if err != nil {
			dropped++
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	if len(events) == 0 && dropped > 0 && trimmed[0] != '{' {
		return nil, 0, transcript.ErrMalformed
	}
	return events, dropped, nil
}

// handleEvents serves GET /v1/events[?session=<key>]: the unordered full
// history of one session or of all sessions.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("session")
	if scope == "" {
		scope = transcript.AllSessions
	}
	label := "session"
	if scope == transcript.AllSessions {
		label = "all"
	}
	fullFetchesTotal.WithLabelValues(label).Inc()

	events, err := s.store.Events(r.Context(), scope)
	if err != nil {
		tuilog.Log.Error("Failed to query events", "session", scope, "error", err)
		writeError(w, http.StatusInternalServerError, "query_error", "Failed to query events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleSessions serves GET /v1/sessions.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.Sessions(r.Context())
	if err != nil {
		tuilog.Log.Error("Failed to query sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "query_error", "Failed to query sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// handleHealth returns a health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"uptime":      time.Since(s.startedAt).Round(time.Second).String(),
		"subscribers": s.broker.Subscribers(),
	})
}
