// Package metrics exposes dispatch observability via Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reconfigmanus/mes-go/internal/application/dispatch"
)

const (
	// Namespace for all metrics
	namespace = "mes"
	// Subsystem for dispatcher metrics
	subsystem = "dispatch"
)

// Collector records dispatch decisions, order queue depths and station
// connections. It implements dispatch.DecisionRecorder and the station
// server's ConnectionMetrics.
type Collector struct {
	registry *prometheus.Registry

	actionQueriesTotal *prometheus.CounterVec
	orderQueueDepth    *prometheus.GaugeVec
	connectionsActive  prometheus.Gauge
}

// NewCollector creates a collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		actionQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "action_queries_total",
				Help:      "Station action queries answered, by query and decision",
			},
			[]string{"query", "action"},
		),

		orderQueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_queue_depth",
				Help:      "Orders per lifecycle queue",
			},
			[]string{"state"},
		),

		connectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "connections_active",
				Help:      "Currently connected station clients",
			},
		),
	}

	c.registry.MustRegister(c.actionQueriesTotal, c.orderQueueDepth, c.connectionsActive)
	return c
}

// Handler returns the HTTP handler for the /metrics endpoint
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordDecision counts one answered query
func (c *Collector) RecordDecision(query string, action dispatch.Action) {
	label := "release"
	if action == dispatch.ActionExecute {
		label = "execute"
	}
	c.actionQueriesTotal.WithLabelValues(query, label).Inc()
}

// ObserveOrderQueues sets the per-state queue depths
func (c *Collector) ObserveOrderQueues(waiting, running, finished int) {
	c.orderQueueDepth.WithLabelValues("waiting").Set(float64(waiting))
	c.orderQueueDepth.WithLabelValues("running").Set(float64(running))
	c.orderQueueDepth.WithLabelValues("finished").Set(float64(finished))
}

// ConnectionOpened increments the active connection gauge
func (c *Collector) ConnectionOpened() {
	c.connectionsActive.Inc()
}

// ConnectionClosed decrements the active connection gauge
func (c *Collector) ConnectionClosed() {
	c.connectionsActive.Dec()
}
