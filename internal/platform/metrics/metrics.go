package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts event-pipeline activity. Nil-safe: a nil *Metrics is a
// no-op so tests and wiring without a registry stay simple.
type Metrics struct {
	eventsPublished *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	eventsConsumed  *prometheus.CounterVec
	malformedEvents *prometheus.CounterVec
}

// New registers pipeline metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_events_published_total",
			Help: "Events successfully published to the broker.",
		}, []string{"topic", "type"}),
		publishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_event_publish_failures_total",
			Help: "Publish attempts that failed after reconnect. Each one is a replication gap.",
		}, []string{"topic"}),
		eventsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_events_consumed_total",
			Help: "Events delivered to a consumer handler, including redeliveries.",
		}, []string{"topic", "group"}),
		malformedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_malformed_events_total",
			Help: "Messages skipped because they failed to parse or decode.",
		}, []string{"topic", "group"}),
	}
}

func (m *Metrics) EventPublished(topic, eventType string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(topic, eventType).Inc()
}

func (m *Metrics) PublishFailed(topic string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(topic).Inc()
}

func (m *Metrics) EventConsumed(topic, group string) {
	if m == nil {
		return
	}
	m.eventsConsumed.WithLabelValues(topic, group).Inc()
}

func (m *Metrics) MalformedEvent(topic, group string) {
	if m == nil {
		return
	}
	m.malformedEvents.WithLabelValues(topic, group).Inc()
}
