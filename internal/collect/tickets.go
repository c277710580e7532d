package collect

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

const (
	defaultTicketTTL = 30 * time.Second
	maxOpenTickets   = 256
)

var (
	ErrTicketInvalid  = errors.New("ticket unknown or expired")
	ErrTicketScope    = errors.New("ticket does not cover this feed")
	ErrTooManyTickets = errors.New("too many open tickets")
)

// TicketStore hands out single-use feed tickets. Browser clients cannot set
// headers on a WebSocket handshake, so they trade the bearer token for a
// ticket and connect with ?ticket=. A ticket for the aggregate feed also
// opens any single-session feed.
type TicketStore struct {
	mu    sync.Mutex
	open  map[string]feedGrant
	ttl   time.Duration
	limit int
	now   func() time.Time
}

type feedGrant struct {
	scope   string
	expires time.Time
}

func (g feedGrant) covers(scope string) bool {
	return g.scope == transcript.AllSessions || g.scope == scope
}

// NewTicketStore creates an empty store.
func NewTicketStore() *TicketStore {
	return &TicketStore{
		open:  make(map[string]feedGrant),
		ttl:   defaultTicketTTL,
		limit: maxOpenTickets,
		now:   time.Now,
	}
}

// Issue opens a ticket for scope. Expired tickets are pruned first; when
// the store is still full Issue fails with ErrTooManyTickets.
func (ts *TicketStore) Issue(scope string) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if len(ts.open) >= ts.limit {
		ts.prune()
		if len(ts.open) >= ts.limit {
			ticketsTotal.WithLabelValues("refused").Inc()
			return "", ErrTooManyTickets
		}
	}
	ticket := uuid.NewString()
	ts.open[ticket] = feedGrant{scope: scope, expires: ts.now().Add(ts.ttl)}
	ticketsTotal.WithLabelValues("issued").Inc()
	return ticket, nil
}

// Redeem burns ticket and checks that it opens the feed of scope. The
// ticket is spent even when the scope does not match.
func (ts *TicketStore) Redeem(ticket, scope string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	g, ok := ts.open[ticket]
	delete(ts.open, ticket)
	switch {
	case !ok || ts.now().After(g.expires):
		ticketsTotal.WithLabelValues("invalid").Inc()
		return ErrTicketInvalid
	case !g.covers(scope):
		ticketsTotal.WithLabelValues("scope").Inc()
		return ErrTicketScope
	}
	ticketsTotal.WithLabelValues("redeemed").Inc()
	return nil
}

// Cleanup drops expired tickets and returns how many were dropped.
func (ts *TicketStore) Cleanup() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.prune()
}

// Open returns the number of unredeemed tickets.
func (ts *TicketStore) Open() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.open)
}

func (ts *TicketStore) prune() int {
	now := ts.now()
	n := 0
	for k, g := range ts.open {
		if now.After(g.expires) {
			delete(ts.open, k)
			n++
		}
	}
	return n
}
