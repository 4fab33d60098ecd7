// Package metric provides the Prometheus metrics bundle for the component
// bus: publication, delivery, dispatch, and request-response counters that
// the bridge and patterns update as traffic flows.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all bus-level metrics (not domain-specific)
type Metrics struct {
	// Bridge metrics
	MessagesPublished *prometheus.CounterVec
	MessagesDelivered *prometheus.CounterVec
	MessagesDropped   *prometheus.CounterVec
	DispatchDuration  *prometheus.HistogramVec
	HandlerErrors     *prometheus.CounterVec
	ActiveTopics      prometheus.Gauge
	ActiveSubscribers *prometheus.GaugeVec
	QueueDepth        *prometheus.GaugeVec

	// Request-response metrics
	RequestsSent      *prometheus.CounterVec
	RequestsCompleted *prometheus.CounterVec
	RequestsTimedOut  *prometheus.CounterVec

	// Transport metrics
	TransportConnected  prometheus.Gauge
	TransportReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all bus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "componentbus",
				Subsystem: "messages",
				Name:      "published_total",
				Help:      "Total number of envelopes published",
			},
			[]string{"bridge", "topic"},
		),

		MessagesDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "componentbus",
				Subsystem: "messages",
				Name:      "delivered_total",
				Help:      "Total number of envelope deliveries to subscribers",
			},
			[]string{"bridge", "topic"},
		),

		MessagesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "componentbus",
				Subsystem: "messages",
				Name:      "dropped_total",
				Help:      "Total number of envelopes dropped (no topic, stopped bridge, full queue)",
			},
			[]string{"bridge", "reason"},
		),

		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "componentbus",
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "Subscriber handler execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"bridge", "topic"},
		),

		HandlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "componentbus",
				Subsystem: "dispatch",
				Name:      "handler_errors_total",
				Help:      "Total number of subscriber handler failures (caught and logged)",
			},
			[]string{"bridge", "topic"},
		),

		ActiveTopics: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "componentbus",
				Subsystem: "bridge",
				Name:      "active_topics",
				Help:      "Number of topics with a registered publisher",
			},
		),

		ActiveSubscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "componentbus",
				Subsystem: "bridge",
				Name:      "active_subscribers",
				Help:      "Number of subscribers per topic",
			},
			[]string{"topic"},
		),

		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "componentbus",
				Subsystem: "bridge",
				Name:      "queue_depth",
				Help:      "Pending envelopes per subscriber queue",
			},
			[]string{"topic"},
		),

		RequestsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "componentbus",
				Subsystem: "requests",
				Name:      "sent_total",
				Help:      "Total number of request-response requests sent",
			},
			[]string{"component", "action"},
		),

		RequestsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "componentbus",
				Subsystem: "requests",
				Name:      "completed_total",
				Help:      "Total number of requests fulfilled before their deadline",
			},
			[]string{"component", "action"},
		),

		RequestsTimedOut: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "componentbus",
				Subsystem: "requests",
				Name:      "timed_out_total",
				Help:      "Total number of requests that exceeded their deadline",
			},
			[]string{"component", "action"},
		),

		TransportConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "componentbus",
				Subsystem: "transport",
				Name:      "connected",
				Help:      "Transport connection status (0=disconnected, 1=connected)",
			},
		),

		TransportReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "componentbus",
				Subsystem: "transport",
				Name:      "reconnects_total",
				Help:      "Total number of transport reconnections",
			},
		),
	}
}
