package collect

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wethinkt/thinkt-live/internal/config"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

const healthPath = "/v1/health"

// Server is the collector HTTP server.
type Server struct {
	config    ServerConfig
	store     EventStore
	broker    *FeedBroker
	tickets   *TicketStore
	router    chi.Router
	startedAt time.Time

	// writeMu orders store appends with feed publishes.
	writeMu sync.Mutex
}

// NewServer creates a collector server over store. The server owns the
// store and closes it on shutdown.
func NewServer(cfg ServerConfig, store EventStore) *Server {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		config:    cfg,
		store:     store,
		broker:    NewFeedBroker(),
		tickets:   NewTicketStore(),
		startedAt: time.Now(),
	}
	s.router = s.setupRouter()
	return s
}

// OpenStore opens the event store named by cfg.Store: "memory", or DuckDB
// at cfg.DBPath (default <config dir>/collector.duckdb).
func OpenStore(cfg config.CollectorConfig) (EventStore, error) {
	switch strings.ToLower(cfg.Store) {
	case "memory":
		return NewMemoryStore(), nil
	case "", "duckdb":
		dbPath := cfg.DBPath
		if dbPath == "" {
			dir, err := config.Dir()
			if err != nil {
				return nil, fmt.Errorf("resolve config dir: %w", err)
			}
			dbPath = filepath.Join(dir, "collector.duckdb")
		}
		store, err := NewDuckDBStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open collector store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want duckdb or memory)", cfg.Store)
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Broker returns the live feed broker.
func (s *Server) Broker() *FeedBroker { return s.broker }

// setupRouter configures the collector HTTP routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware)

	if !s.config.Quiet {
		r.Use(middleware.Logger)
	}

	// Bearer token auth
	if s.config.Token != "" {
		tuilog.Log.Info("Collector authentication enabled")
		r.Use(bearerAuth(s.config.Token))
	} else {
		tuilog.Log.Warn("Collector running without authentication - use --token to secure")
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/events", s.handleIngest)
		r.Get("/events", s.handleEvents)
		r.Get("/sessions", s.handleSessions)
		r.Get("/stream", s.handleStream)
		r.Post("/stream/ticket", s.handleIssueTicket)
		r.Get("/health", s.handleHealth)
	})

	return r
}

// ListenAndServe starts the collector server and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	// Check for port conflicts
	if existing := config.FindInstanceByPort(s.config.Port); existing != nil {
		return fmt.Errorf("port %d is already in use by thinkt-live %s (PID %d, started %s)",
			s.config.Port, existing.Type, existing.PID, existing.StartedAt.Format(time.RFC3339))
	}

	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: s.router,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	// Update port if auto-assigned
	if s.config.Port == 0 {
		s.config.Port = ln.Addr().(*net.TCPAddr).Port
	}

	// Register instance for discovery
	inst := config.Instance{
		Type:      config.InstanceCollector,
		PID:       os.Getpid(),
		Port:      s.config.Port,
		Host:      s.config.Host,
		StartedAt: time.Now(),
	}
	if err := config.RegisterInstance(inst); err != nil {
		tuilog.Log.Warn("Failed to register collector instance", "error", err)
	}

	go s.cleanTickets(ctx)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		config.UnregisterInstance(os.Getpid())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.writeMu.Lock()
		s.store.Close()
		s.writeMu.Unlock()
	}()

	if !s.config.Quiet {
		fmt.Printf("Collector server running at http://%s\n", s.Addr())
	}
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Addr returns the server address string.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// cleanTickets periodically removes expired feed tickets.
func (s *Server) cleanTickets(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.tickets.Cleanup(); removed > 0 {
				tuilog.Log.Debug("Cleaned expired tickets", "removed", removed)
			}
		}
	}
}

// bearerAuth returns middleware that validates a bearer token using
// constant-time comparison to prevent timing attacks.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == healthPath, r.URL.Path == "/metrics":
				next.ServeHTTP(w, r)
				return
			case r.URL.Path == "/v1/stream" && r.URL.Query().Get("ticket") != "":
				// handleStream redeems the ticket
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="thinkt-live"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header")
				return
			}

			const prefix = "Bearer "
			if len(auth) < len(prefix) || auth[:len(prefix)] != prefix {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format")
				return
			}

			if subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware adds CORS headers for cross-origin requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, err string, msg string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: msg})
}
