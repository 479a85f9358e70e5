// Package metrics exposes prometheus counters for admin panel activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry so several servers (tests) can coexist in one process
type Metrics struct {
	registry           *prometheus.Registry
	Mutations          *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	NotifyFailures     *prometheus.CounterVec
}

// New registers the tyggbot counters plus the go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tyggbot_admin_mutations_total",
			Help: "Rows written through the admin panel.",
		}, []string{"resource", "op"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tyggbot_admin_validation_failures_total",
			Help: "Admin form submissions rejected by validation.",
		}, []string{"resource"}),
		NotifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tyggbot_notify_failures_total",
			Help: "Update notifications that could not be delivered.",
		}, []string{"event"}),
	}
	reg.MustRegister(
		m.Mutations,
		m.ValidationFailures,
		m.NotifyFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Mutation counts a write. Safe on a nil receiver.
func (m *Metrics) Mutation(resource, op string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(resource, op).Inc()
}

// ValidationFailure counts a rejected form. Safe on a nil receiver.
func (m *Metrics) ValidationFailure(resource string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(resource).Inc()
}

// NotifyFailure counts a dropped notification. Safe on a nil receiver.
func (m *Metrics) NotifyFailure(event string) {
	if m == nil {
		return
	}
	m.NotifyFailures.WithLabelValues(event).Inc()
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
