package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records counters for the inbound event pipeline.
type WebhookMetrics struct {
	duration   *prometheus.HistogramVec
	received   *prometheus.CounterVec
	duplicates prometheus.Counter
	failures   *prometheus.CounterVec
	replies    *prometheus.CounterVec
	orders     prometheus.Counter
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_event_duration_seconds",
		Help:    "Duration of inbound event processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_received",
		Help: "Inbound webhook events by message type.",
	}, []string{"type"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_events_duplicate",
		Help: "Inbound events discarded as provider redeliveries.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_failed",
		Help: "Inbound events that ended in an error, by error code.",
	}, []string{"code"})
	replies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_replies_sent",
		Help: "Outbound replies delivered, by reply kind.",
	}, []string{"kind"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_orders_placed",
		Help: "Orders committed from conversational checkouts.",
	})
	reg.MustRegister(duration, received, duplicates, failures, replies, orders)
	return &WebhookMetrics{
		duration:   duration,
		received:   received,
		duplicates: duplicates,
		failures:   failures,
		replies:    replies,
		orders:     orders,
	}
}

// ObserveDuration records how long an event took, labelled by outcome.
func (m *WebhookMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncReceived counts one inbound event of the given message type.
func (m *WebhookMetrics) IncReceived(msgType string) {
	if m == nil || m.received == nil {
		return
	}
	m.received.WithLabelValues(normalizeLabel(msgType)).Inc()
}

// IncDuplicate counts one discarded redelivery.
func (m *WebhookMetrics) IncDuplicate() {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.Inc()
}

// IncFailure counts one failed event by error code.
func (m *WebhookMetrics) IncFailure(code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncReply counts one delivered reply by kind.
func (m *WebhookMetrics) IncReply(kind string) {
	if m == nil || m.replies == nil {
		return
	}
	m.replies.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncOrderPlaced counts one committed order.
func (m *WebhookMetrics) IncOrderPlaced() {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
