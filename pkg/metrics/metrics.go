// Package metrics exposes suibase's Prometheus instrumentation: per-workdir
// subscription state gauges, reconnect/retry counters, dedup counters, and
// mailbox depth gauges fed by pkg/events' DepthBroker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TrackersByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "suibase_package_trackers",
			Help: "Number of package tracking records by workdir and state",
		},
		[]string{"workdir", "state"},
	)

	ReconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suibase_websocket_reconnects_total",
			Help: "Total number of successful websocket (re)connections by workdir",
		},
		[]string{"workdir"},
	)

	ConnectFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suibase_websocket_connect_failures_total",
			Help: "Total number of failed websocket connection attempts by workdir",
		},
		[]string{"workdir"},
	)

	RequestRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suibase_subscription_request_retries_total",
			Help: "Subscribe/unsubscribe request retries logged as errors (the first retry, then every third) by workdir and kind",
		},
		[]string{"workdir", "kind"},
	)

	EventsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suibase_events_ingested_total",
			Help: "Total validated Sui event notifications forwarded upstream by workdir",
		},
		[]string{"workdir"},
	)

	EventsDedupedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suibase_events_deduped_total",
			Help: "Total events suppressed as duplicates by the events writer by workdir",
		},
		[]string{"workdir"},
	)

	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suibase_events_dropped_total",
			Help: "Total frames/notifications dropped by workdir and reason",
		},
		[]string{"workdir", "reason"},
	)

	MailboxDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "suibase_mailbox_depth",
			Help: "Most recent observed mailbox depth by worker and workdir",
		},
		[]string{"worker", "workdir"},
	)

	ReconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suibase_reconcile_duration_seconds",
			Help:    "Time taken to process one AUDIT or UPDATE message",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"workdir", "kind"},
	)
)

func init() {
	prometheus.MustRegister(
		TrackersByState,
		ReconnectsTotal,
		ConnectFailuresTotal,
		RequestRetriesTotal,
		EventsIngestedTotal,
		EventsDedupedTotal,
		EventsDroppedTotal,
		MailboxDepth,
		ReconcileDuration,
	)
}

// Handler returns the Prometheus HTTP scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a small helper for timing operations into a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDurationVec records the elapsed time into a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram *prometheus.HistogramVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
