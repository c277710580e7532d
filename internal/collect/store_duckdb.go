package collect

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

const collectorSchema = `
CREATE TABLE IF NOT EXISTS live_sessions (
    session_key VARCHAR PRIMARY KEY,
    title VARCHAR DEFAULT '',
    project VARCHAR DEFAULT '',
    item_count INTEGER DEFAULT 0,
    last_seen_ms DOUBLE,
    last_seq DOUBLE,
    first_seen TIMESTAMP,
    last_updated TIMESTAMP
);

CREATE TABLE IF NOT EXISTS live_events (
    row_key VARCHAR PRIMARY KEY,
    id VARCHAR DEFAULT '',
    session_key VARCHAR NOT NULL,
    ts DOUBLE,
    seq DOUBLE,
    kind VARCHAR DEFAULT '',
    payload VARCHAR,
    ingested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// DuckDBStore implements EventStore backed by DuckDB.
type DuckDBStore struct {
	// Single writer: Append holds mu so sequence assignment and upserts
	// never interleave.
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewDuckDBStore opens (or creates) a DuckDB database for the collector.
func NewDuckDBStore(dbPath string) (*DuckDBStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if _, err := db.Exec(collectorSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize collector schema: %w", err)
	}

	// Security hardening
	if _, err := db.Exec("SET enable_external_access=false"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set security settings: %w", err)
	}

	return &DuckDBStore{db: db, path: dbPath}, nil
}

// Append implements EventStore. All events are written in one transaction.
func (s *DuckDBStore) Append(ctx context.Context, project string, events []transcript.Event) ([]transcript.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stored := make([]transcript.Event, 0, len(events))
	for _, ev := range events {
		out, err := s.writeEvent(ctx, tx, project, ev)
		if err != nil {
			return nil, err
		}
		stored = append(stored, out)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	storeWriteDurationSeconds.Observe(time.Since(start).Seconds())
	tuilog.Log.Debug("Appended events", "events", len(stored), "duration", time.Since(start))
	return stored, nil
}

func rowKey(ev transcript.Event) string {
	if !ev.Patchable() {
		return "legacy-" + uuid.NewString()
	}
	return ev.SessionKey + "/" + ev.ID
}

func (s *DuckDBStore) writeEvent(ctx context.Context, tx *sql.Tx, project string, ev transcript.Event) (transcript.Event, error) {
	key := rowKey(ev)
	payload := payloadString(ev.Payload)

	if ev.Patchable() {
		var ts, seq sql.NullFloat64
		var kind string
		err := tx.QueryRowContext(ctx,
			`SELECT ts, seq, kind FROM live_events WHERE row_key = ?`, key).Scan(&ts, &seq, &kind)
		switch {
		case err == nil:
			if ev.Kind != "" {
				kind = string(ev.Kind)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE live_events SET payload = ?, kind = ? WHERE row_key = ?`,
				payload, kind, key); err != nil {
				return ev, fmt.Errorf("update event %s: %w", ev.ID, err)
			}
			ev.Op = transcript.OpUpdate
			ev.Kind = transcript.Kind(kind)
			ev.TimestampMs = fromNull(ts)
			ev.Seq = fromNull(seq)
			return ev, nil
		case err != sql.ErrNoRows:
			return ev, fmt.Errorf("look up event %s: %w", ev.ID, err)
		}
	}

	ev.Op = transcript.OpInsert
	if math.IsNaN(ev.Seq) || math.IsInf(ev.Seq, 0) {
		var next float64
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM live_events WHERE session_key = ?`,
			ev.SessionKey).Scan(&next); err != nil {
			return ev, fmt.Errorf("next seq: %w", err)
		}
		ev.Seq = next
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO live_events (row_key, id, session_key, ts, seq, kind, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key, ev.ID, ev.SessionKey, toNull(ev.TimestampMs), toNull(ev.Seq), string(ev.Kind), payload); err != nil {
		return ev, fmt.Errorf("insert event %s: %w", ev.ID, err)
	}

	var summary transcript.SessionSummary
	summary.Observe(ev)
	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO live_sessions (session_key, title, project, item_count, last_seen_ms, last_seq, first_seen, last_updated)
		VALUES (?, ?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT (session_key) DO UPDATE SET
			item_count = live_sessions.item_count + 1,
			last_seen_ms = GREATEST(COALESCE(live_sessions.last_seen_ms, EXCLUDED.last_seen_ms), COALESCE(EXCLUDED.last_seen_ms, live_sessions.last_seen_ms)),
			last_seq = GREATEST(COALESCE(live_sessions.last_seq, EXCLUDED.last_seq), COALESCE(EXCLUDED.last_seq, live_sessions.last_seq)),
			title = CASE WHEN live_sessions.title = '' THEN EXCLUDED.title ELSE live_sessions.title END,
			project = CASE WHEN EXCLUDED.project != '' THEN EXCLUDED.project ELSE live_sessions.project END,
			last_updated = EXCLUDED.last_updated
	`, ev.SessionKey, summary.Title, project, toNull(ev.TimestampMs), toNull(ev.Seq), now, now); err != nil {
		return ev, fmt.Errorf("upsert session %s: %w", ev.SessionKey, err)
	}
	return ev, nil
}

// Events implements EventStore.
func (s *DuckDBStore) Events(ctx context.Context, session string) ([]transcript.Event, error) {
	query := `SELECT id, session_key, ts, seq, kind, payload FROM live_events`
	var args []any
	if session != transcript.AllSessions {
		query += ` WHERE session_key = ?`
		args = append(args, session)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []transcript.Event{}
	for rows.Next() {
		var (
			ev       transcript.Event
			kind     string
			ts, seq  sql.NullFloat64
			payload  sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.SessionKey, &ts, &seq, &kind, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = transcript.Kind(kind)
		ev.Op = transcript.OpInsert
		ev.TimestampMs = fromNull(ts)
		ev.Seq = fromNull(seq)
		if payload.Valid && payload.String != "" {
			ev.Payload = json.RawMessage(payload.String)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Sessions implements EventStore.
func (s *DuckDBStore) Sessions(ctx context.Context) ([]transcript.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_key, title, project, item_count, last_seen_ms, last_seq
		FROM live_sessions
		ORDER BY last_seen_ms DESC NULLS LAST, session_key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []transcript.SessionSummary{}
	for rows.Next() {
		var ss transcript.SessionSummary
		var lastSeen, lastSeq sql.NullFloat64
		if err := rows.Scan(&ss.Key, &ss.Title, &ss.Project, &ss.Count, &lastSeen, &lastSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ss.LastSeenMs = lastSeen.Float64
		ss.LastSeq = lastSeq.Float64
		sessions = append(sessions, ss)
	}
	return sessions, rows.Err()
}

// Close closes the database.
func (s *DuckDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func toNull(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func fromNull(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

func payloadString(p json.RawMessage) any {
	if len(p) == 0 {
		return nil
	}
	return string(p)
}
