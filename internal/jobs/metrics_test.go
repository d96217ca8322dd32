package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("lead:notify").End(nil))
	boom := errors.New("smtp down")
	assert.ErrorIs(t, m.Track("lead:notify").End(boom), boom)
	m.Skipped("lead:render-pdf", "stale_version")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lead:notify", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("lead:notify", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("lead:notify")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped.WithLabelValues("lead:render-pdf", "stale_version")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("x").End(boom), boom)
	m.Skipped("x", "y")
}
