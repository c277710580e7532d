package live

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsRoutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "live",
		Name:      "events_routed_total",
		Help:      "Feed events handled by the viewer, by route.",
	}, []string{"route"})

	resyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "live",
		Name:      "resyncs_total",
		Help:      "Resync outcomes (committed, stale, failed).",
	}, []string{"result"})

	bufferOverflowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "live",
		Name:      "buffer_overflows_total",
		Help:      "Hidden-session buffers that overflowed.",
	})

	viewEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "live",
		Name:      "view_evictions_total",
		Help:      "Materialized views evicted from the cache.",
	})

	cachedViews = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "thinkt",
		Subsystem: "live",
		Name:      "cached_views",
		Help:      "Materialized views currently cached.",
	})

	pendingEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "thinkt",
		Subsystem: "live",
		Name:      "pending_events",
		Help:      "Events deferred while a resync is in flight.",
	})
)
