package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PollFailures counts switch polls that exhausted their retries
	PollFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "switchmap",
			Name:      "poll_failures_total",
			Help:      "Total number of failed switch polls",
		},
		[]string{"site"},
	)

	// RebuildDuration tracks how long a site topology rebuild takes
	RebuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "switchmap",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of topology rebuilds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"site"},
	)

	// TraceResolutions counts endpoint resolutions by the tier that answered
	TraceResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "switchmap",
			Name:      "trace_resolutions_total",
			Help:      "Total number of MAC endpoint resolutions by confidence tier",
		},
		[]string{"tier"},
	)

	// TraceMisses counts resolutions where every tier came up empty
	TraceMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "switchmap",
			Name:      "trace_misses_total",
			Help:      "Total number of MAC resolutions that found nothing",
		},
	)

	// SnapshotQueries counts offline graph MAC queries
	SnapshotQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "switchmap",
			Name:      "snapshot_queries_total",
			Help:      "Total number of offline graph queries",
		},
		[]string{"result"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		// Register metrics, ignoring errors if already registered
		// This prevents panics when metrics are already in the registry
		prometheus.DefaultRegisterer.Register(PollFailures)
		prometheus.DefaultRegisterer.Register(RebuildDuration)
		prometheus.DefaultRegisterer.Register(TraceResolutions)
		prometheus.DefaultRegisterer.Register(TraceMisses)
		prometheus.DefaultRegisterer.Register(SnapshotQueries)
	})
}
