package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/componentbus/errors"
)

// Registry manages the registration and lifecycle of bus metrics.
// It owns its own prometheus.Registry so tests and multiple bridges in
// one process never collide on the global default registry.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	extra              map[string]prometheus.Collector
	mu                 sync.Mutex
}

// NewRegistry creates a new metrics registry with core bus metrics and
// Go runtime collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		prometheusRegistry: prometheus.NewRegistry(),
		Metrics:            NewMetrics(),
		extra:              make(map[string]prometheus.Collector),
	}

	r.prometheusRegistry.MustRegister(
		r.Metrics.MessagesPublished,
		r.Metrics.MessagesDelivered,
		r.Metrics.MessagesDropped,
		r.Metrics.DispatchDuration,
		r.Metrics.HandlerErrors,
		r.Metrics.ActiveTopics,
		r.Metrics.ActiveSubscribers,
		r.Metrics.QueueDepth,
		r.Metrics.RequestsSent,
		r.Metrics.RequestsCompleted,
		r.Metrics.RequestsTimedOut,
		r.Metrics.TransportConnected,
		r.Metrics.TransportReconnects,
	)

	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// RegisterCollector registers an additional named collector (for example a
// component-specific gauge). Re-registering a name fails.
func (r *Registry) RegisterCollector(name string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extra[name]; exists {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "metric.Registry", "RegisterCollector", "duplicate name check")
	}
	if err := r.prometheusRegistry.Register(collector); err != nil {
		return errors.WrapInvalid(err, "metric.Registry", "RegisterCollector", "prometheus registration")
	}
	r.extra[name] = collector
	return nil
}

// Unregister removes a previously registered named collector
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	collector, exists := r.extra[name]
	if !exists {
		return false
	}
	delete(r.extra, name)
	return r.prometheusRegistry.Unregister(collector)
}

// Handler returns the HTTP handler serving this registry in the Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying prometheus gatherer (used by tests)
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prometheusRegistry
}
