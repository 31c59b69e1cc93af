// Package metrics provides the centralized Prometheus metrics registry for
// the betting core.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SimulationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeline",
		Name:      "simulations_total",
		Help:      "Total number of completed simulation runs by iteration tier",
	}, []string{"tier"})
	StaleResultsDiscardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edgeline",
		Name:      "stale_results_discarded_total",
		Help:      "Total number of simulation results discarded because the line moved mid-run",
	})
	DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeline",
		Name:      "decisions_total",
		Help:      "Total number of classification decisions by state",
	}, []string{"state"})
	GradingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeline",
		Name:      "gradings_total",
		Help:      "Total number of settled picks by status",
	}, []string{"status"})
	DriftFreezesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edgeline",
		Name:      "drift_freezes_total",
		Help:      "Total number of picks frozen because score entities drifted from pick entities",
	})
	MissingClosingSnapshotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edgeline",
		Name:      "missing_closing_snapshots_total",
		Help:      "Total number of gradings settled without a closing snapshot for CLV",
	})
)

// Gauge metrics
var (
	UngradedPicks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "edgeline",
		Name:      "ungraded_picks",
		Help:      "Number of published picks awaiting settlement",
	})
	ClosingStreamConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "edgeline",
		Name:      "closing_stream_connected",
		Help:      "Whether the closing-line stream is currently connected (1 or 0)",
	})
)

// Histogram metrics
var (
	SimulationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edgeline",
		Name:      "simulation_duration_seconds",
		Help:      "Duration of simulation runs in seconds by iteration tier",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"tier"})
	GradingSweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "edgeline",
		Name:      "grading_sweep_duration_seconds",
		Help:      "Duration of grading sweep batches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(SimulationsTotal)
		registry.MustRegister(StaleResultsDiscardedTotal)
		registry.MustRegister(DecisionsTotal)
		registry.MustRegister(GradingsTotal)
		registry.MustRegister(DriftFreezesTotal)
		registry.MustRegister(MissingClosingSnapshotsTotal)

		// Register gauge metrics
		registry.MustRegister(UngradedPicks)
		registry.MustRegister(ClosingStreamConnected)

		// Register histogram metrics
		registry.MustRegister(SimulationDuration)
		registry.MustRegister(GradingSweepDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordSimulation records a completed simulation run.
func RecordSimulation(tier string, durationSeconds float64) {
	SimulationsTotal.WithLabelValues(tier).Inc()
	SimulationDuration.WithLabelValues(tier).Observe(durationSeconds)
}

// RecordStaleResultDiscarded records a simulation result discarded due to
// line movement during the run.
func RecordStaleResultDiscarded() {
	StaleResultsDiscardedTotal.Inc()
}

// RecordDecision records a classification decision.
func RecordDecision(state string) {
	DecisionsTotal.WithLabelValues(state).Inc()
}

// RecordGrading records a settled pick.
func RecordGrading(status string) {
	GradingsTotal.WithLabelValues(status).Inc()
}

// RecordDriftFreeze records a pick frozen for manual review due to entity drift.
func RecordDriftFreeze() {
	DriftFreezesTotal.Inc()
}

// RecordMissingClosingSnapshot records a grading settled without CLV.
func RecordMissingClosingSnapshot() {
	MissingClosingSnapshotsTotal.Inc()
}

// RecordGradingSweepDuration records the duration of a grading sweep batch.
func RecordGradingSweepDuration(durationSeconds float64) {
	GradingSweepDuration.Observe(durationSeconds)
}

// UpdateUngradedPicks updates the ungraded picks gauge.
func UpdateUngradedPicks(count float64) {
	UngradedPicks.Set(count)
}

// UpdateClosingStreamConnected updates the stream connection gauge.
func UpdateClosingStreamConnected(connected bool) {
	if connected {
		ClosingStreamConnected.Set(1)
	} else {
		ClosingStreamConnected.Set(0)
	}
}
