package auth

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSink is an ActivitySink counting registration and login outcomes
type MetricsSink struct {
	registry      *prometheus.Registry
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
}

// NewMetricsSink registers the auth counters on a dedicated registry
func NewMetricsSink() *MetricsSink {
	m := &MetricsSink{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portal",
				Subsystem: "auth",
				Name:      "registrations_total",
				Help:      "Account registrations by principal kind and outcome.",
			},
			[]string{"kind", "outcome", "reason"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portal",
				Subsystem: "auth",
				Name:      "logins_total",
				Help:      "Login attempts by principal kind and outcome.",
			},
			[]string{"kind", "outcome", "reason"},
		),
	}
	m.registry.MustRegister(m.registrations, m.logins)
	return m
}

// Record implements ActivitySink.
func (m *MetricsSink) Record(_ context.Context, event ActivityEvent) error {
	kind := string(event.Kind)
	switch event.EventType {
	case ActivityEventRegisterSuccess:
		m.registrations.WithLabelValues(kind, "success", "").Inc()
	case ActivityEventRegisterFailure:
		m.registrations.WithLabelValues(kind, "failure", event.Reason).Inc()
	case ActivityEventLoginSuccess:
		m.logins.WithLabelValues(kind, "success", "").Inc()
	case ActivityEventLoginFailure:
		m.logins.WithLabelValues(kind, "failure", event.Reason).Inc()
	}
	return nil
}

// Registry exposes the underlying registry, mostly for tests
func (m *MetricsSink) Registry() *prometheus.Registry {
	return m.registry
}

// Registrations returns the registration counter
func (m *MetricsSink) Registrations() *prometheus.CounterVec {
	return m.registrations
}

// Logins returns the login counter
func (m *MetricsSink) Logins() *prometheus.CounterVec {
	return m.logins
}

// Handler serves the registry in the Prometheus exposition format
func (m *MetricsSink) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ ActivitySink = (*MetricsSink)(nil)
