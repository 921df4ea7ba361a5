package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serverMetrics groups the prometheus collectors the server exports on /metrics.
type serverMetrics struct {
	registry *prometheus.Registry

	structuresLoaded   prometheus.Counter
	capacityRejections prometheus.Counter
	historyOps         *prometheus.CounterVec
	wsClients          prometheus.Gauge
}

func newServerMetrics() *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		structuresLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "molscene_structures_loaded_total",
			Help: "Structures successfully loaded into a scene.",
		}),
		capacityRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "molscene_capacity_rejections_total",
			Help: "Structure loads rejected by the scene capacity limit.",
		}),
		historyOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "molscene_history_ops_total",
			Help: "Undo/redo operations, by op and whether a step was available.",
		}, []string{"op", "applied"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "molscene_websocket_clients",
			Help: "Currently connected websocket event subscribers.",
		}),
	}
	m.registry.MustRegister(
		m.structuresLoaded,
		m.capacityRejections,
		m.historyOps,
		m.wsClients,
	)
	return m
}

func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
