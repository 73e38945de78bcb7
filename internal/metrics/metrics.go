// Package metrics exposes Prometheus instrumentation for scans and enrollment.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the access core.
type Metrics struct {
	// Scan outcomes by access status
	ScanOutcome *prometheus.CounterVec

	// Scans rejected before matching, by reason ("format", "storage")
	ScanRejected *prometheus.CounterVec

	// Confidence of accepted matches
	MatchConfidence prometheus.Histogram

	// Full scan latency including storage
	ScanLatency prometheus.Histogram

	// Size of the candidate set per scan
	CandidateCount prometheus.Histogram

	// Directory changes by operation ("create", "update", "delete")
	EnrollmentOps *prometheus.CounterVec
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScanOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "facegate_scan_outcomes_total",
			Help: "Total scans by access status",
		}, []string{"status"}), // status: "IDENTIFIED", "VISITOR", "DENIED"

		ScanRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "facegate_scan_rejected_total",
			Help: "Scans that produced no event, by reason",
		}, []string{"reason"}),

		MatchConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "facegate_match_confidence",
			Help:    "Confidence of accepted matches",
			Buckets: []float64{0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1},
		}),

		ScanLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "facegate_scan_duration_seconds",
			Help:    "Duration of a full scan including candidate load and event append",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		CandidateCount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "facegate_scan_candidates",
			Help:    "Number of eligible candidates compared per scan",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),

		EnrollmentOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "facegate_enrollment_operations_total",
			Help: "Identity directory changes by operation",
		}, []string{"op"}),
	}
}

// IncrementOutcome records a completed scan.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.ScanOutcome.WithLabelValues(status).Inc()
	}
}

// IncrementRejected records a scan that was aborted before an event was written.
func (m *Metrics) IncrementRejected(reason string) {
	if m != nil {
		m.ScanRejected.WithLabelValues(reason).Inc()
	}
}

// ObserveConfidence records the confidence of an accepted match.
func (m *Metrics) ObserveConfidence(confidence float64) {
	if m != nil {
		m.MatchConfidence.Observe(confidence)
	}
}

// ObserveScanLatency records the total scan duration.
func (m *Metrics) ObserveScanLatency(d time.Duration) {
	if m != nil {
		m.ScanLatency.Observe(d.Seconds())
	}
}

// ObserveCandidates records how many candidates a scan compared.
func (m *Metrics) ObserveCandidates(n int) {
	if m != nil {
		m.CandidateCount.Observe(float64(n))
	}
}

// IncrementEnrollment records a directory change.
func (m *Metrics) IncrementEnrollment(op string) {
	if m != nil {
		m.EnrollmentOps.WithLabelValues(op).Inc()
	}
}
