package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "chatcube_client"

// Metrics are the client's prometheus instruments. A nil Registerer yields
// working but unregistered metrics.
type Metrics struct {
	envelopesSent     *prometheus.CounterVec
	envelopesReceived *prometheus.CounterVec
	envelopesDropped  *prometheus.CounterVec
	dialsTotal        prometheus.Counter
	reconnectsTotal   prometheus.Counter
	transportErrors   prometheus.Counter
	connectionState   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		envelopesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "envelopes_sent_total",
			Help:      "Envelopes handed to the transport, by type",
		}, []string{"type"}),

		envelopesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "envelopes_received_total",
			Help:      "Inbound envelopes routed, by type",
		}, []string{"type"}),

		envelopesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "envelopes_dropped_total",
			Help:      "Envelopes discarded in either direction, by reason",
		}, []string{"reason"}),

		dialsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dials_total",
			Help:      "Connection attempts, manual and automatic",
		}),

		reconnectsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reconnects_scheduled_total",
			Help:      "Automatic reconnect attempts scheduled",
		}),

		transportErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transport_errors_total",
			Help:      "Errors reported by the websocket transport",
		}),

		connectionState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connection_state",
			Help:      "0 disconnected, 1 connecting, 2 awaiting identity, 3 connected",
		}),
	}
}
