package metrics

import "github.com/prometheus/client_golang/prometheus"

// PublisherMetrics records outbox relay activity.
type PublisherMetrics struct {
	published *prometheus.CounterVec
	failures  *prometheus.CounterVec
	backlog   prometheus.Gauge
}

// NewPublisherMetrics registers the publisher metrics on the provided
// registerer.
func NewPublisherMetrics(reg prometheus.Registerer) *PublisherMetrics {
	if reg == nil {
		return &PublisherMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events successfully published.",
	}, []string{"event_type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox publish attempts that failed.",
	}, []string{"event_type"})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_backlog",
		Help: "Unpublished outbox events seen in the last poll.",
	})
	reg.MustRegister(published, failures, backlog)
	return &PublisherMetrics{
		published: published,
		failures:  failures,
		backlog:   backlog,
	}
}

// IncPublished counts one delivered event.
func (m *PublisherMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailure counts one failed delivery attempt.
func (m *PublisherMetrics) IncFailure(eventType string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// SetBacklog records the unpublished backlog size.
func (m *PublisherMetrics) SetBacklog(size int) {
	if m == nil || m.backlog == nil {
		return
	}
	m.backlog.Set(float64(size))
}
