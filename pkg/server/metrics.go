package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus instruments.
type Metrics struct {
	activeSessions    prometheus.Gauge
	sessionsTotal     prometheus.Counter
	sessionDuration   prometheus.Histogram
	handshakeFailures prometheus.Counter
	messagesSent      prometheus.Counter
	violationsTotal   prometheus.Counter
}

// NewMetrics registers the server's instruments with the given registry.
// A nil registry uses the default registerer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "riva",
			Name:      "active_sessions",
			Help:      "Number of live sessions",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "riva",
			Name:      "sessions_total",
			Help:      "Total number of sessions created",
		}),
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "riva",
			Name:      "session_duration_seconds",
			Help:      "Session lifetime in seconds",
			Buckets:   []float64{1, 10, 60, 300, 1800, 7200, 43200},
		}),
		handshakeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "riva",
			Name:      "handshake_failures_total",
			Help:      "Connections rejected during handshake",
		}),
		messagesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "riva",
			Name:      "state_messages_sent_total",
			Help:      "Total updateComponentStates messages sent",
		}),
		violationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "riva",
			Name:      "protocol_violations_total",
			Help:      "Inbound messages rejected as protocol violations",
		}),
	}
}
