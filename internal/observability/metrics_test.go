package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordersUpdateCollectors(t *testing.T) {
	m := NewMetrics()

	m.RecordSignal(true)
	m.RecordSignal(false)
	m.RecordSignal(false)
	m.RecordVerdict(true)
	m.RecordInteraction("tooltip", "explained")
	m.RecordBackendCall("explain", "", time.Second)
	m.RecordBackendFailure("classify", "small")

	require.Equal(t, 1.0, testutil.ToFloat64(m.Signals.WithLabelValues("invited")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Signals.WithLabelValues("ignored")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("positive")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Interactions.WithLabelValues("tooltip", "explained")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("explain", "unknown")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.BackendFailures.WithLabelValues("classify", "small")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordSignal(true)
		m.RecordVerdict(false)
		m.RecordInteraction("manual", "cancelled")
		m.RecordBackendCall("classify", "m", 0)
		m.RecordBackendFailure("classify", "m")
		m.IncActiveSessions("connect")
		m.DecActiveSessions("connect")
		m.RecordTransportError("ndjson", "decode")
	})
}
