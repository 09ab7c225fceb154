package engine

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMetricsNamespace prefixes every scheduler metric.
const DefaultMetricsNamespace = "frap"

// Metrics provides Prometheus metrics for a Scheduler.
//
// A nil *Metrics is valid and records nothing, so the scheduler can call
// it unconditionally.
type Metrics struct {
	tasksExecuted prometheus.Counter
	tasksRejected prometheus.Counter
	queueDepth    prometheus.Gauge
	turn          prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates scheduler collectors on a private registry.
// An empty namespace uses DefaultMetricsNamespace.
func NewMetrics(namespace string) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultMetricsNamespace
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		tasksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tasks_executed_total",
			Help:      "Total number of tasks executed, one per turn",
		}),
		tasksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tasks_rejected_total",
			Help:      "Total number of tasks offered after the scheduler stopped",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "queue_depth",
			Help:      "Number of tasks waiting for a turn",
		}),
		turn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "turn",
			Help:      "Current logical turn of the scheduler clock",
		}),
	}

	for _, c := range []prometheus.Collector{m.tasksExecuted, m.tasksRejected, m.queueDepth, m.turn} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register scheduler metric: %w", err)
		}
	}

	return m, nil
}

// Registry returns the registry holding the scheduler collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) recordTask(turn int64, depth int) {
	if m == nil {
		return
	}
	m.tasksExecuted.Inc()
	m.turn.Set(float64(turn))
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) recordEnqueue(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) recordRejected() {
	if m == nil {
		return
	}
	m.tasksRejected.Inc()
}
