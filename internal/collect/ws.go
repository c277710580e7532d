package collect

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

// handleStream serves the live feed on GET /v1/stream[?session=<key>].
// A WebSocket handshake gets one JSON event per text message; any other
// request gets NDJSON. The feed carries only events stored after the
// subscription starts; clients backfill with a full fetch.
//
// Auth: either the Authorization header (bearerAuth) or ?ticket=.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("session")
	if scope == "" {
		scope = transcript.AllSessions
	}

	if ticket := r.URL.Query().Get("ticket"); ticket != "" {
		if err := s.tickets.Redeem(ticket, scope); err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, ErrTicketScope) {
				status = http.StatusForbidden
			}
			writeError(w, status, "unauthorized", err.Error())
			return
		}
	}

	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		s.streamWebSocket(w, r, scope)
		return
	}
	s.streamNDJSON(w, r, scope)
}

func (s *Server) streamWebSocket(w http.ResponseWriter, r *http.Request, scope string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		tuilog.Log.Error("WebSocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// Subscribe before anything else so no stored event is missed.
	ch, unsub := s.broker.Subscribe(scope)
	defer unsub()

	ctx := conn.CloseRead(r.Context())

	wsConnectionsActive.Inc()
	defer wsConnectionsActive.Dec()
	tuilog.Log.Info("Feed client connected", "session", scope, "transport", "websocket")

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return
		case events, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusTryAgainLater, "subscriber fell behind")
				return
			}
			for _, ev := range events {
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					tuilog.Log.Debug("Feed write failed", "session", scope, "error", err)
					return
				}
			}
		}
	}
}

func (s *Server) streamNDJSON(w http.ResponseWriter, r *http.Request, scope string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "stream_unsupported", "Streaming not supported")
		return
	}

	ch, unsub := s.broker.Subscribe(scope)
	defer unsub()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	tuilog.Log.Info("Feed client connected", "session", scope, "transport", "ndjson")

	enc := json.NewEncoder(w)
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case events, ok := <-ch:
			if !ok {
				return
			}
			for _, ev := range events {
				if err := enc.Encode(ev); err != nil {
					tuilog.Log.Debug("Feed write failed", "session", scope, "error", err)
					return
				}
			}
			flusher.Flush()
		}
	}
}

// handleIssueTicket issues a feed auth ticket.
// POST /v1/stream/ticket with body {"session": "..."}; an empty session
// means every session.
func (s *Server) handleIssueTicket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Session string `json:"session"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Failed to parse request body")
		return
	}
	scope := strings.TrimSpace(req.Session)
	if scope == "" {
		scope = transcript.AllSessions
	}

	ticket, err := s.tickets.Issue(scope)
	if err != nil {
		writeError(w, http.StatusTooManyRequests, "too_many_tickets", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ticket": ticket, "session": scope})
}
