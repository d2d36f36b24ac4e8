// Package metrics holds the Prometheus collectors for the chat path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splunkchat"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics is registered once on the Registerer given to New.
type Metrics struct {
	chatRequests    *prometheus.CounterVec
	chatDuration    *prometheus.HistogramVec
	toolInvocations *prometheus.CounterVec
	registeredTools prometheus.Gauge
	droppedEvents   *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. It panics on duplicate
// registration, like prometheus.MustRegister.
func New(reg prometheus.Registerer) *Metrics {
	buckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

	m := &Metrics{
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		chatDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_duration_seconds",
			Help:      "Time to answer a chat request, tool calls included.",
			Buckets:   buckets,
		}, []string{"mode"}),
		toolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool calls made on the model's behalf by tool and outcome.",
		}, []string{"tool", "outcome"}),
		registeredTools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_tools",
			Help:      "Tool callbacks attached to the chat client at startup.",
		}),
		droppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_dropped_total",
			Help:      "Audit events dropped because the recorder fell behind.",
		}, []string{"topic"}),
	}

	reg.MustRegister(m.chatRequests, m.chatDuration, m.toolInvocations, m.registeredTools, m.droppedEvents)
	return m
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// ObserveChat records one chat request.
func (m *Metrics) ObserveChat(mode string, d time.Duration, err error) {
	m.chatRequests.WithLabelValues(mode, outcome(err)).Inc()
	m.chatDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) ObserveToolInvocation(tool string, err error) {
	m.toolInvocations.WithLabelValues(tool, outcome(err)).Inc()
}

func (m *Metrics) SetRegisteredTools(n int) {
	m.registeredTools.Set(float64(n))
}

// EventDropped matches eventbus.DropFunc.
func (m *Metrics) EventDropped(topic string) {
	m.droppedEvents.WithLabelValues(topic).Inc()
}
