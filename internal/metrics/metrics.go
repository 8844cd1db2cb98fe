// Package metrics holds the Prometheus collectors of the studio engine.
// A nil *Metrics is valid and records nothing, so services work without it in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeHidden   = "hidden"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Metrics contains the engine's counters and the registry exposing them.
type Metrics struct {
	registry *prometheus.Registry

	RendersTotal            *prometheus.CounterVec
	ValidationFailuresTotal *prometheus.CounterVec
	RecordWritesTotal       *prometheus.CounterVec
}

// New creates the collectors and registers them, plus Go runtime and process metrics,
// on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nebula_studio",
				Name:      "renders_total",
				Help:      "Widget renders by component type and outcome",
			},
			[]string{"type", "outcome"},
		),

		ValidationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nebula_studio",
				Name:      "validation_failures_total",
				Help:      "Per-field validation failures by source (record, widget_config)",
			},
			[]string{"source"},
		),

		RecordWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nebula_studio",
				Name:      "record_writes_total",
				Help:      "Record writes by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.RendersTotal,
		m.ValidationFailuresTotal,
		m.RecordWritesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRender(componentType, outcome string) {
	if m == nil {
		return
	}
	m.RendersTotal.WithLabelValues(componentType, outcome).Inc()
}

func (m *Metrics) ObserveValidationFailures(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ValidationFailuresTotal.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) ObserveRecordWrite(op, outcome string) {
	if m == nil {
		return
	}
	m.RecordWritesTotal.WithLabelValues(op, outcome).Inc()
}
