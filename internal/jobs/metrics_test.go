package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("orders:status.changed").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("orders:status.changed").End(boom), boom)

	require.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("orders:status.changed", "success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("orders:status.changed", "failure")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.failures.WithLabelValues("orders:status.changed")), 0)

	m.ObserveStatus("done")
	require.InDelta(t, 1, testutil.ToFloat64(m.statuses.WithLabelValues("done")), 0)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NoError(t, m.Track("noop").End(nil))
	m.ObserveStatus("done")
}
