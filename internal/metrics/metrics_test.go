package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementOutcome("IDENTIFIED")
	m.IncrementOutcome("IDENTIFIED")
	m.IncrementOutcome("DENIED")
	m.IncrementRejected("format")
	m.ObserveConfidence(0.92)
	m.ObserveScanLatency(3 * time.Millisecond)
	m.ObserveCandidates(12)
	m.IncrementEnrollment("create")

	assert.InDelta(t, 2, testutil.ToFloat64(m.ScanOutcome.WithLabelValues("IDENTIFIED")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ScanOutcome.WithLabelValues("DENIED")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ScanRejected.WithLabelValues("format")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EnrollmentOps.WithLabelValues("create")), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementOutcome("DENIED")
		m.IncrementRejected("storage")
		m.ObserveConfidence(1)
		m.ObserveScanLatency(time.Second)
		m.ObserveCandidates(0)
		m.IncrementEnrollment("delete")
	})
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
