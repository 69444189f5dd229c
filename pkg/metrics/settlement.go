package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records outcomes of the settlement pipeline.
type SettlementMetrics struct {
	duration   *prometheus.HistogramVec
	outcomes   *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided
// registerer. A nil registerer yields a no-op recorder, used in tests.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of settlement operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_outcomes_total",
		Help: "Settlement operations by final outcome.",
	}, []string{"operation", "outcome"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_rejections_total",
		Help: "Settlements rejected before completion, by reason.",
	}, []string{"reason"})
	reg.MustRegister(duration, outcomes, rejections)
	return &SettlementMetrics{
		duration:   duration,
		outcomes:   outcomes,
		rejections: rejections,
	}
}

// ObserveDuration records how long the named operation took.
func (m *SettlementMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncOutcome counts one finished operation.
func (m *SettlementMetrics) IncOutcome(operation, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncRejection counts a settlement turned away before completion.
func (m *SettlementMetrics) IncRejection(reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
