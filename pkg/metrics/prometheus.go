// Package metrics provides Prometheus metrics for the duelo rating engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the rating engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Rating activity - the judgments flowing through the store
	matchesApplied prometheus.Counter
	draws          prometheus.Counter
	undoApplied    prometheus.Counter
	undoFailures   prometheus.Counter

	// Store shape
	playersTotal prometheus.Gauge
	cohortsTotal prometheus.Gauge

	// Matchmaking
	pairsPicked  prometheus.Counter
	noPairRounds prometheus.Counter

	// Persistence
	savesScheduled prometheus.Counter
	saveWrites     prometheus.Counter
	saveErrors     prometheus.Counter
	saveLatency    prometheus.Histogram
	snapshotBytes  prometheus.Gauge
	malformedLoads prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "duelo",
		subsystem:        "rating",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.matchesApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_applied_total",
		Help:      "Total number of comparisons applied to the store",
	})

	m.draws = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "draws_total",
		Help:      "Total number of comparisons judged a draw",
	})

	m.undoApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "undo_applied_total",
		Help:      "Total number of comparisons reverted via undo",
	})

	m.undoFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "undo_failures_total",
		Help:      "Total number of undo attempts that found no matching records",
	})

	m.playersTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_total",
		Help:      "Total number of player records across all cohorts",
	})

	m.cohortsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cohorts_total",
		Help:      "Total number of cohorts holding rating data",
	})

	m.pairsPicked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pairs_picked_total",
		Help:      "Total number of comparison pairs selected",
	})

	m.noPairRounds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "no_pair_rounds_total",
		Help:      "Total number of rounds with fewer than two candidates",
	})

	m.savesScheduled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "saves_scheduled_total",
		Help:      "Total number of save schedule requests (before coalescing)",
	})

	m.saveWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_writes_total",
		Help:      "Total number of snapshot writes performed",
	})

	m.saveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_errors_total",
		Help:      "Total number of snapshot writes that failed",
	})

	m.saveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_latency_milliseconds",
		Help:      "Histogram of snapshot write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotBytes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_bytes",
		Help:      "Size of the most recently written snapshot in bytes",
	})

	m.malformedLoads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "malformed_snapshot_loads_total",
		Help:      "Total number of snapshot loads that fell back to an empty store",
	})
}

// RecordMatchApplied increments the applied comparisons counter.
func RecordMatchApplied() {
	globalManager.matchesApplied.Inc()
}

// RecordDraw increments the draw counter.
func RecordDraw() {
	globalManager.draws.Inc()
}

// RecordUndo increments the undo counter.
func RecordUndo() {
	globalManager.undoApplied.Inc()
}

// RecordUndoFailure increments the failed-undo counter.
func RecordUndoFailure() {
	globalManager.undoFailures.Inc()
}

// UpdatePlayersTotal sets the player-record gauge.
func UpdatePlayersTotal(count int) {
	globalManager.playersTotal.Set(float64(count))
}

// UpdateCohortsTotal sets the cohort gauge.
func UpdateCohortsTotal(count int) {
	globalManager.cohortsTotal.Set(float64(count))
}

// RecordPairPicked increments the selected-pairs counter.
func RecordPairPicked() {
	globalManager.pairsPicked.Inc()
}

// RecordNoPairRound increments the degenerate-round counter.
func RecordNoPairRound() {
	globalManager.noPairRounds.Inc()
}

// RecordSaveScheduled increments the schedule-request counter.
func RecordSaveScheduled() {
	globalManager.savesScheduled.Inc()
}

// RecordSaveWrite increments the performed-writes counter.
func RecordSaveWrite() {
	globalManager.saveWrites.Inc()
}

// RecordSaveError increments the failed-writes counter.
func RecordSaveError() {
	globalManager.saveErrors.Inc()
}

// RecordSaveLatency records snapshot write latency in milliseconds.
func RecordSaveLatency(latencyMs float64) {
	globalManager.saveLatency.Observe(latencyMs)
}

// UpdateSnapshotBytes sets the last snapshot size gauge.
func UpdateSnapshotBytes(size int) {
	globalManager.snapshotBytes.Set(float64(size))
}

// RecordMalformedLoad increments the malformed-snapshot counter.
func RecordMalformedLoad() {
	globalManager.malformedLoads.Inc()
}

// GetRegistry returns the custom registry used by the global manager,
// for exposing or inspecting metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
