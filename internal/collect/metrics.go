package collect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "collector",
		Name:      "ingest_events_total",
		Help:      "Total events stored, by op (insert or update).",
	}, []string{"op"})

	ingestRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "collector",
		Name:      "ingest_requests_total",
		Help:      "Total ingest requests, by status.",
	}, []string{"status"})

	ingestDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "collector",
		Name:      "ingest_dropped_total",
		Help:      "Total events dropped during decoding or validation.",
	})

	ingestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "thinkt",
		Subsystem: "collector",
		Name:      "ingest_duration_seconds",
		Help:      "Ingest request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	storeWriteDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "thinkt",
		Subsystem: "collector",
		Name:      "store_write_duration_seconds",
		Help:      "Event store transaction duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	fullFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "collector",
		Name:      "full_fetches_total",
		Help:      "Total full-fetch requests, by scope (session or all).",
	}, []string{"scope"})

	feedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "thinkt",
		Subsystem: "collector",
		Name:      "feed_subscribers",
		Help:      "Number of open live feed subscriptions.",
	})

	feedSlowClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "collector",
		Name:      "feed_slow_closed_total",
		Help:      "Total feed subscribers closed for falling behind.",
	})

	ticketsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "collector",
		Name:      "feed_tickets_total",
		Help:      "Feed tickets by outcome (issued, refused, redeemed, invalid, scope).",
	}, []string{"result"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "thinkt",
		Subsystem: "collector",
		Name:      "ws_connections_active",
		Help:      "Number of active WebSocket feed connections.",
	})
)
