// Package metrics exposes Prometheus instrumentation for the assessment
// pipeline. All methods are safe on a nil receiver so callers can run
// without metrics wired.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline collectors.
//
// Metrics:
//   - covmap_assessments_total: Completed assessments by effective status
//   - covmap_assessment_duration_seconds: End-to-end assessment duration
//   - covmap_oracle_attempts_total: Oracle calls, including retries
//   - covmap_oracle_fallbacks_total: Deterministic fallbacks by cause
//   - covmap_escalations_total: Risk escalations to NEEDS_LEGAL_REVIEW
//   - covmap_signal_failures_total: Scoring signals that degraded to zero
type Metrics struct {
	assessmentsTotal   *prometheus.CounterVec
	assessmentDuration prometheus.Histogram
	oracleAttempts     prometheus.Counter
	oracleFallbacks    *prometheus.CounterVec
	escalations        prometheus.Counter
	signalFailures     *prometheus.CounterVec
}

// New creates and registers the pipeline metrics with the provided registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		assessmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "covmap",
				Name:      "assessments_total",
				Help:      "Total completed assessments by effective status",
			},
			[]string{"status"},
		),
		assessmentDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "covmap",
				Name:      "assessment_duration_seconds",
				Help:      "End-to-end duration of a single obligation assessment",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5min
			},
		),
		oracleAttempts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "covmap",
				Name:      "oracle_attempts_total",
				Help:      "Total oracle calls including retries",
			},
		),
		oracleFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "covmap",
				Name:      "oracle_fallbacks_total",
				Help:      "Deterministic fallback assessments by cause",
			},
			[]string{"cause"},
		),
		escalations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "covmap",
				Name:      "escalations_total",
				Help:      "Assessments escalated to NEEDS_LEGAL_REVIEW",
			},
		),
		signalFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "covmap",
				Name:      "signal_failures_total",
				Help:      "Scoring signals that failed and contributed zero",
			},
			[]string{"signal"},
		),
	}

	registry.MustRegister(
		m.assessmentsTotal,
		m.assessmentDuration,
		m.oracleAttempts,
		m.oracleFallbacks,
		m.escalations,
		m.signalFailures,
	)
	return m
}

// ObserveAssessment records one completed assessment.
func (m *Metrics) ObserveAssessment(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.assessmentsTotal.WithLabelValues(status).Inc()
	m.assessmentDuration.Observe(d.Seconds())
}

// OracleAttempt records one oracle call.
func (m *Metrics) OracleAttempt() {
	if m == nil {
		return
	}
	m.oracleAttempts.Inc()
}

// OracleFallback records a deterministic fallback by cause
// ("transport" or "validation").
func (m *Metrics) OracleFallback(cause string) {
	if m == nil {
		return
	}
	m.oracleFallbacks.WithLabelValues(cause).Inc()
}

// Escalation records a risk escalation.
func (m *Metrics) Escalation() {
	if m == nil {
		return
	}
	m.escalations.Inc()
}

// SignalFailure records a degraded scoring signal.
func (m *Metrics) SignalFailure(signal string) {
	if m == nil {
		return
	}
	m.signalFailures.WithLabelValues(signal).Inc()
}
