package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("assets:purge").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("assets:purge").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("assets:purge", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("assets:purge", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("assets:purge")))
}

func TestNilMetricsTrackerIsNoop(t *testing.T) {
	var m *Metrics
	err := errors.New("x")
	assert.Equal(t, err, m.Track("job").End(err))
}
