// Package metric provides the gateway's Prometheus collectors and the
// /metrics HTTP handler.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the bridge records. Constructing against a
// private registry keeps tests independent of global state.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamConnected prometheus.Gauge
	UpstreamAttempts  prometheus.Counter
	FramesReceived    prometheus.Counter

	Viewers    prometheus.Gauge
	Broadcasts *prometheus.CounterVec
	Commands   *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UpstreamConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "qrcbridge",
			Subsystem: "upstream",
			Name:      "connected",
			Help:      "Whether the device session is currently connected (0 or 1)",
		}),
		UpstreamAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "qrcbridge",
			Subsystem: "upstream",
			Name:      "connection_transitions_total",
			Help:      "Total number of device session status transitions",
		}),
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "qrcbridge",
			Subsystem: "upstream",
			Name:      "frames_received_total",
			Help:      "Total number of framed messages received from the device",
		}),
		Viewers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "qrcbridge",
			Subsystem: "gateway",
			Name:      "viewers",
			Help:      "Currently connected downstream WebSocket clients",
		}),
		Broadcasts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrcbridge",
			Subsystem: "gateway",
			Name:      "broadcasts_total",
			Help:      "Total number of events broadcast to a topic",
		}, []string{"topic"}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrcbridge",
			Subsystem: "gateway",
			Name:      "commands_total",
			Help:      "Total number of downstream commands dispatched",
		}, []string{"topic", "command", "status"}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
