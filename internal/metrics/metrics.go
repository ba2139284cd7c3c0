// Package metrics owns the Prometheus instrumentation for the simulate and
// compile surfaces. Everything hangs off one private registry so tests
// can assert on counters without touching global state.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors the serve surface exports.
type Metrics struct {
	registry *prometheus.Registry

	Simulations          prometheus.Counter
	SimulatedTransitions prometheus.Counter
	CompileDuration      *prometheus.HistogramVec
	CompileFailures      *prometheus.CounterVec
	GraphsStored         prometheus.Gauge
}

// New builds a Metrics with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Simulations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strata_simulations_total",
			Help: "Offline simulations served.",
		}),
		SimulatedTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strata_simulation_transitions_total",
			Help: "State changes observed across served simulation timelines.",
		}),
		CompileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "strata_compile_duration_seconds",
			Help:    "Wall time spent lowering a graph for one target.",
			Buckets: prometheus.DefBuckets,
		}, []string{"target"}),
		CompileFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strata_compile_failures_total",
			Help: "Compiles that returned a target error.",
		}, []string{"target"}),
		GraphsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "strata_graphs_stored",
			Help: "Graphs currently held by the backing store.",
		}),
	}

	m.registry.MustRegister(
		m.Simulations,
		m.SimulatedTransitions,
		m.CompileDuration,
		m.CompileFailures,
		m.GraphsStored,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCompile records one compile attempt for a target.
func (m *Metrics) ObserveCompile(target string, took time.Duration, failed bool) {
	m.CompileDuration.WithLabelValues(target).Observe(took.Seconds())
	if failed {
		m.CompileFailures.WithLabelValues(target).Inc()
	}
}
