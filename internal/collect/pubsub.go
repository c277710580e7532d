package collect

import (
	"sync"

	"github.com/wethinkt/thinkt-live/internal/transcript"
	"github.com/wethinkt/thinkt-live/internal/tuilog"
)

const subscriberBuffer = 64

// FeedBroker provides in-memory fan-out of stored events to live feed
// subscribers. A subscriber watches one session or, with
// transcript.AllSessions, every session.
//
// A subscriber whose buffer is full is closed rather than skipped, so the
// client sees a disconnect and resyncs instead of silently missing events.
type FeedBroker struct {
	mu   sync.Mutex
	subs map[string][]*subscriber
}

type subscriber struct {
	ch     chan []transcript.Event
	closed bool
}

// NewFeedBroker creates an empty broker.
func NewFeedBroker() *FeedBroker {
	return &FeedBroker{
		subs: make(map[string][]*subscriber),
	}
}

// Subscribe returns a channel that receives event batches for session.
// Call the returned function to unsubscribe. The channel is closed on
// unsubscribe or when the subscriber falls behind.
func (b *FeedBroker) Subscribe(session string) (<-chan []transcript.Event, func()) {
	if session == "" {
		session = transcript.AllSessions
	}
	sub := &subscriber{ch: make(chan []transcript.Event, subscriberBuffer)}

	b.mu.Lock()
	b.subs[session] = append(b.subs[session], sub)
	feedSubscribers.Inc()
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.remove(session, sub)
	}
	return sub.ch, unsub
}

// remove detaches sub. Callers hold b.mu.
func (b *FeedBroker) remove(session string, sub *subscriber) {
	subs := b.subs[session]
	for i, s := range subs {
		if s != sub {
			continue
		}
		b.subs[session] = append(subs[:i:i], subs[i+1:]...)
		if !s.closed {
			s.closed = true
			close(s.ch)
			feedSubscribers.Dec()
		}
		break
	}
	if len(b.subs[session]) == 0 {
		delete(b.subs, session)
	}
}

// Publish sends events to the subscribers of their sessions and to every
// aggregate subscriber. Events keep their order within each delivery.
func (b *FeedBroker) Publish(events []transcript.Event) {
	if len(events) == 0 {
		return
	}
	bySession := make(map[string][]transcript.Event)
	for _, ev := range events {
		bySession[ev.SessionKey] = append(bySession[ev.SessionKey], ev)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for session, batch := range bySession {
		b.deliver(session, batch)
	}
	b.deliver(transcript.AllSessions, events)
}

// deliver sends batch to the subscribers of key. Callers hold b.mu.
func (b *FeedBroker) deliver(key string, batch []transcript.Event) {
	for _, sub := range append([]*subscriber(nil), b.subs[key]...) {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- batch:
		default:
			tuilog.Log.Warn("Closing slow feed subscriber", "session", key)
			feedSlowClosedTotal.Inc()
			b.remove(key, sub)
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (b *FeedBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, subs := range b.subs {
		n += len(subs)
	}
	return n
}
