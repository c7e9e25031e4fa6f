// Package metrics exposes build measurements as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/orchestrator"
)

const (
	namespace = "buildgrid"
	subsystem = "build"
)

var phaseBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Collector implements orchestrator.Metrics on its own registry.
type Collector struct {
	registry      *prometheus.Registry
	phaseDuration *prometheus.HistogramVec
	builds        *prometheus.CounterVec
	testCases     *prometheus.CounterVec
}

// New creates a Collector. The registry also carries the Go runtime and
// process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "phase_duration_seconds",
			Help:      "Duration of build phases",
			Buckets:   phaseBuckets,
		}, []string{"phase", "outcome"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "builds_total",
			Help:      "Number of finished builds by final state",
		}, []string{"status"}),
		testCases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "test_cases_total",
			Help:      "Number of executed test cases by outcome",
		}, []string{"outcome"}),
	}
	c.registry.MustRegister(
		c.phaseDuration,
		c.builds,
		c.testCases,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObservePhase implements orchestrator.Metrics.
func (c *Collector) ObservePhase(phase orchestrator.Phase, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.phaseDuration.WithLabelValues(string(phase), outcome).Observe(d.Seconds())
}

// ObserveBuild implements orchestrator.Metrics.
func (c *Collector) ObserveBuild(status orchestrator.State) {
	c.builds.WithLabelValues(string(status)).Inc()
}

// ObserveTests implements orchestrator.Metrics.
func (c *Collector) ObserveTests(r *orchestrator.TestReport) {
	for _, k := range []config.EventKind{config.EventPassed, config.EventSkipped, config.EventFailed} {
		if n := r.Count(k); n > 0 {
			c.testCases.WithLabelValues(string(k)).Add(float64(n))
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
