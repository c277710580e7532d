package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "live_feed",
		Name:      "records_total",
		Help:      "Feed records received, by result (ok or malformed).",
	}, []string{"result"})

	reconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "thinkt",
		Subsystem: "live_feed",
		Name:      "reconnects_total",
		Help:      "Feed connections established after a failure.",
	})

	feedConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "thinkt",
		Subsystem: "live_feed",
		Name:      "connected",
		Help:      "1 while the feed is connected.",
	})
)
