package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the coach and daemon.
type Metrics struct {
	registry        *prometheus.Registry
	Signals         *prometheus.CounterVec
	Verdicts        *prometheus.CounterVec
	Interactions    *prometheus.CounterVec
	BackendCalls    *prometheus.CounterVec
	BackendFailures *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	ActiveSession   *prometheus.GaugeVec
	TransportErrs   *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with coach collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	signals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "errcoach_error_signals_total",
		Help: "Error-state signals by outcome (invited, ignored)",
	}, []string{"outcome"})

	verdicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "errcoach_classifier_verdicts_total",
		Help: "Classifier verdicts by result",
	}, []string{"verdict"})

	interactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "errcoach_interactions_total",
		Help: "Explain interactions by entry path and outcome",
	}, []string{"path", "outcome"})

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "errcoach_backend_calls_total",
		Help: "Generation backend calls by purpose and model",
	}, []string{"purpose", "model"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "errcoach_backend_failures_total",
		Help: "Generation backend failures by purpose and model",
	}, []string{"purpose", "model"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "errcoach_backend_duration_seconds",
		Help:    "Generation backend call duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"purpose"})

	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "errcoach_transport_active_sessions",
		Help: "Active sessions by transport",
	}, []string{"transport"})

	trErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "errcoach_transport_errors_total",
		Help: "Transport-level errors by transport and reason",
	}, []string{"transport", "reason"})

	reg.MustRegister(signals, verdicts, interactions, calls, failures, durs, active, trErrors)

	return &Metrics{
		registry:        reg,
		Signals:         signals,
		Verdicts:        verdicts,
		Interactions:    interactions,
		BackendCalls:    calls,
		BackendFailures: failures,
		BackendDuration: durs,
		ActiveSession:   active,
		TransportErrs:   trErrors,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSignal counts an error-state signal.
func (m *Metrics) RecordSignal(invited bool) {
	if m == nil {
		return
	}
	outcome := "ignored"
	if invited {
		outcome = "invited"
	}
	m.Signals.WithLabelValues(outcome).Inc()
}

// RecordVerdict counts a classifier verdict.
func (m *Metrics) RecordVerdict(isError bool) {
	if m == nil {
		return
	}
	verdict := "negative"
	if isError {
		verdict = "positive"
	}
	m.Verdicts.WithLabelValues(verdict).Inc()
}

// RecordInteraction counts a finished interaction.
func (m *Metrics) RecordInteraction(path, outcome string) {
	if m == nil {
		return
	}
	m.Interactions.WithLabelValues(orUnknown(path), orUnknown(outcome)).Inc()
}

// RecordBackendCall records a backend call and its duration.
func (m *Metrics) RecordBackendCall(purpose, model string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BackendCalls.WithLabelValues(orUnknown(purpose), orUnknown(model)).Inc()
	m.BackendDuration.WithLabelValues(orUnknown(purpose)).Observe(duration.Seconds())
}

// RecordBackendFailure counts a failed backend call.
func (m *Metrics) RecordBackendFailure(purpose, model string) {
	if m == nil {
		return
	}
	m.BackendFailures.WithLabelValues(orUnknown(purpose), orUnknown(model)).Inc()
}

// IncActiveSessions increments the active session gauge.
func (m *Metrics) IncActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Inc()
}

// DecActiveSessions decrements the active session gauge.
func (m *Metrics) DecActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSession.WithLabelValues(transport).Dec()
}

// RecordTransportError records a transport-level error.
func (m *Metrics) RecordTransportError(transport, reason string) {
	if m == nil {
		return
	}
	m.TransportErrs.WithLabelValues(orUnknown(transport), orUnknown(reason)).Inc()
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
