package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the detection engine.
type Metrics struct {
	// Per-check durations by check name
	CheckDuration *prometheus.HistogramVec

	// Findings produced by category
	FindingsDetected *prometheus.CounterVec

	// Full detection runs by derived severity
	RunsTotal *prometheus.CounterVec

	// Overall full-run latency
	RunDuration prometheus.Histogram
}

// New creates a Metrics instance with all detection metrics registered.
func New() *Metrics {
	return &Metrics{
		CheckDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scrutiny_detection_check_duration_seconds",
			Help:    "Duration of individual detection checks by check name",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"check"}), // check: "ledger_votes", "ledger_audit", "duplicates", "anomalies"

		FindingsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scrutiny_detection_findings_total",
			Help: "Total findings produced by category",
		}, []string{"category"}),

		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scrutiny_detection_runs_total",
			Help: "Total full detection runs by derived severity",
		}, []string{"severity"}),

		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scrutiny_detection_run_duration_seconds",
			Help:    "Duration of full detection runs including aggregation",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
	}
}

// ObserveCheckDuration records the duration of one detection check.
func (m *Metrics) ObserveCheckDuration(check string, d time.Duration) {
	if m != nil {
		m.CheckDuration.WithLabelValues(check).Observe(d.Seconds())
	}
}

// AddFindings records findings produced under a category.
func (m *Metrics) AddFindings(category string, count int) {
	if m != nil && count > 0 {
		m.FindingsDetected.WithLabelValues(category).Add(float64(count))
	}
}

// IncrementRun records a completed full detection run.
func (m *Metrics) IncrementRun(severity string) {
	if m != nil {
		m.RunsTotal.WithLabelValues(severity).Inc()
	}
}

// ObserveRunDuration records the total full-run duration.
func (m *Metrics) ObserveRunDuration(d time.Duration) {
	if m != nil {
		m.RunDuration.Observe(d.Seconds())
	}
}
