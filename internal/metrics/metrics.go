// Package metrics exposes pipeline counters through Prometheus.
//
// All recording methods are safe on a nil *Metrics so components can be built
// without a registry in tests and one-shot CLI runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jarvis"

// Metrics holds the collectors of one pipeline instance.
type Metrics struct {
	registry      *prometheus.Registry
	commands      *prometheus.CounterVec
	planFallbacks *prometheus.CounterVec
	launches      *prometheus.CounterVec
	planDuration  prometheus.Histogram
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Processed commands by pipeline branch and target platform.",
		}, []string{"branch", "platform"}),
		planFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_fallbacks_total",
			Help:      "Times the planner returned the fallback plan, by reason.",
		}, []string{"reason"}),
		launches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "script_launches_total",
			Help:      "Script interpreter launches by platform and result.",
		}, []string{"platform", "result"}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Time spent interpreting a command into a plan.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
	}

	m.registry.MustRegister(
		m.commands,
		m.planFallbacks,
		m.launches,
		m.planDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Command counts one finished pipeline run.
func (m *Metrics) Command(branch, platform string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(branch, platform).Inc()
}

// PlanFallback counts one fallback plan.
func (m *Metrics) PlanFallback(reason string) {
	if m == nil {
		return
	}
	m.planFallbacks.WithLabelValues(reason).Inc()
}

// Launch counts one interpreter launch attempt. result is "started",
// "skipped" or "failed".
func (m *Metrics) Launch(platform, result string) {
	if m == nil {
		return
	}
	m.launches.WithLabelValues(platform, result).Inc()
}

// ObservePlan records how long planning took.
func (m *Metrics) ObservePlan(d time.Duration) {
	if m == nil {
		return
	}
	m.planDuration.Observe(d.Seconds())
}
