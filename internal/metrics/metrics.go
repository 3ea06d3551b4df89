// Package metrics exposes Prometheus instrumentation for sync cycles and
// chat searches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRuns counts completed sync cycles.
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "sync_runs_total",
			Help:      "Total number of completed sync cycles",
		},
		[]string{"kind"},
	)

	// SyncedRecords counts records inserted or modified by sync cycles.
	SyncedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "synced_records_total",
			Help:      "Total number of records inserted or modified",
		},
		[]string{"kind"},
	)

	// SyncDuration measures how long a full cycle takes.
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "radar",
			Name:      "sync_duration_seconds",
			Help:      "Duration of sync cycles in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	// SourceFailures counts feeds skipped because of fetch, parse or store errors.
	SourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "source_failures_total",
			Help:      "Total number of feed sources skipped in a cycle",
		},
		[]string{"kind", "source"},
	)

	// Searches counts chat searches by outcome.
	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "radar",
			Name:      "searches_total",
			Help:      "Total number of chat searches",
		},
		[]string{"outcome"},
	)
)

// RecordSync records one finished cycle.
func RecordSync(kind string, synced int, seconds float64) {
	SyncRuns.WithLabelValues(kind).Inc()
	SyncedRecords.WithLabelValues(kind).Add(float64(synced))
	SyncDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordSourceFailure records a skipped source.
func RecordSourceFailure(kind, source string) {
	SourceFailures.WithLabelValues(kind, source).Inc()
}

// RecordSearch records a search outcome: greeting, hit, miss or error.
func RecordSearch(outcome string) {
	Searches.WithLabelValues(outcome).Inc()
}
