// Package metrics holds the Prometheus collectors of procforge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	Exports  *prometheus.CounterVec
	Autosave *prometheus.CounterVec
	Imports  *prometheus.CounterVec
	Changes  *prometheus.CounterVec
	History  prometheus.Gauge
}

// New creates a registry with the procforge collectors and the Go runtime
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "procforge_exports_total",
			Help: "Procedure exports by change type.",
		}, []string{"change_type"}),
		Autosave: f.NewCounterVec(prometheus.CounterOpts{
			Name: "procforge_autosave_total",
			Help: "Autosave attempts by result.",
		}, []string{"result"}),
		Imports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "procforge_imports_total",
			Help: "Procedure imports by result.",
		}, []string{"result"}),
		Changes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "procforge_changes_total",
			Help: "Procedure changes by kind.",
		}, []string{"kind"}),
		History: f.NewGauge(prometheus.GaugeOpts{
			Name: "procforge_version_history_entries",
			Help: "Number of entries in the version history.",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
