// Package bridge is the message bus core: it owns topic registries, wraps a
// swappable transport backend, and dispatches envelopes between components.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/componentbus/errors"
	"github.com/c360/componentbus/message"
	"github.com/c360/componentbus/metric"
)

// DefaultStopTimeout bounds how long Stop waits for in-flight dispatch.
const DefaultStopTimeout = 5 * time.Second

// EnvelopeHandler receives decoded envelopes from a subscription.
type EnvelopeHandler func(ctx context.Context, env *message.Envelope)

type topicKey struct {
	componentID string
	commType    message.CommunicationType
}

// PublisherHandle identifies a registered publish channel.
type PublisherHandle struct {
	ComponentID string
	Type        message.CommunicationType
	Topic       string
}

// Bridge routes envelopes between components over a Backend. Construct one
// per process and hand it to every communicator; the topic registry it owns
// is the only state shared across components.
type Bridge struct {
	name      string
	namespace string
	backend   Backend
	logger    *slog.Logger
	metrics   *metric.Metrics
	registry  *message.Registry

	mu         sync.Mutex
	started    bool
	stopped    bool
	publishers map[topicKey]PublisherHandle
}

// Option configures a Bridge
type Option func(*Bridge)

// WithBackend selects the transport. Default is an in-process mock.
func WithBackend(backend Backend) Option {
	return func(b *Bridge) {
		if backend != nil {
			b.backend = backend
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics wires bridge counters into a metrics bundle
func WithMetrics(m *metric.Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// WithRegistry sets the payload registry used to decode inbound envelopes.
// Default is the registry with every built-in payload type.
func WithRegistry(reg *message.Registry) Option {
	return func(b *Bridge) {
		if reg != nil {
			b.registry = reg
		}
	}
}

// WithNamespace overrides the topic namespace prefix
func WithNamespace(ns string) Option {
	return func(b *Bridge) {
		if ns != "" {
			b.namespace = ns
		}
	}
}

// New creates a bridge. The name identifies it in logs and metrics.
func New(name string, opts ...Option) (*Bridge, error) {
	if name == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("bridge name is required"),
			"Bridge", "New", "name validation")
	}

	b := &Bridge{
		name:       name,
		namespace:  DefaultTopicNamespace,
		logger:     slog.Default(),
		registry:   message.DefaultRegistry(),
		publishers: make(map[topicKey]PublisherHandle),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.backend == nil {
		b.backend = NewMockBackend(WithMockLogger(b.logger))
	}

	// Surface backend-level drops in the metrics
	if mock, ok := b.backend.(*MockBackend); ok && b.metrics != nil {
		mock.onDrop(func(_ string) {
			b.metrics.MessagesDropped.WithLabelValues(b.name, "queue_full").Inc()
		})
	}

	b.logger = b.logger.With("bridge", name)
	return b, nil
}

// Name returns the bridge identifier
func (b *Bridge) Name() string {
	return b.name
}

// Topic derives the topic name for a component and communication type
func (b *Bridge) Topic(commType message.CommunicationType, componentID string) string {
	return TopicName(b.namespace, commType, componentID)
}

// Start opens the backend and binds every registered publisher. Calling
// Start on a running bridge is a no-op; a stopped bridge cannot restart.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return errors.ErrAlreadyStopped
	}
	if b.started {
		return nil
	}

	if err := b.backend.Start(ctx); err != nil {
		return errors.Wrap(err, "Bridge", "Start", "start backend")
	}

	for _, handle := range b.publishers {
		if err := b.backend.CreatePublisher(handle.Topic); err != nil {
			return errors.Wrap(err, "Bridge", "Start", "bind topic "+handle.Topic)
		}
	}

	b.started = true
	b.logger.Info("bridge started", "topics", len(b.publishers))
	return nil
}

// Stop drains in-flight dispatch and releases the backend. Publish calls
// after Stop return false. Stop is idempotent.
func (b *Bridge) Stop(timeout time.Duration) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.started = false
	b.stopped = true
	b.mu.Unlock()

	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}

	err := b.backend.Stop(timeout)
	if err != nil {
		b.logger.Error("backend stop failed", "error", err)
		return errors.Wrap(err, "Bridge", "Stop", "stop backend")
	}

	b.logger.Info("bridge stopped")
	return nil
}

// CreatePublisher registers a publish channel for (componentID, commType).
// Idempotent: registering the same pair again returns the existing handle
// without disturbing the live one.
func (b *Bridge) CreatePublisher(componentID string, commType message.CommunicationType) (PublisherHandle, error) {
	if componentID == "" {
		return PublisherHandle{}, errors.WrapInvalid(
			fmt.Errorf("component id is required"),
			"Bridge", "CreatePublisher", "component validation")
	}
	if !commType.IsValid() {
		return PublisherHandle{}, errors.WrapInvalid(
			fmt.Errorf("unknown communication type %q", commType),
			"Bridge", "CreatePublisher", "communication type validation")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return PublisherHandle{}, errors.ErrAlreadyStopped
	}

	key := topicKey{componentID: componentID, commType: commType}
	if handle, ok := b.publishers[key]; ok {
		return handle, nil
	}

	handle := PublisherHandle{
		ComponentID: componentID,
		Type:        commType,
		Topic:       TopicName(b.namespace, commType, componentID),
	}

	if b.started {
		if err := b.backend.CreatePublisher(handle.Topic); err != nil {
			return PublisherHandle{}, errors.Wrap(err, "Bridge", "CreatePublisher", "bind topic "+handle.Topic)
		}
	}

	b.publishers[key] = handle
	if b.metrics != nil {
		b.metrics.ActiveTopics.Set(float64(len(b.publishers)))
	}

	b.logger.Debug("publisher registered", "component", componentID, "type", string(commType), "topic", handle.Topic)
	return handle, nil
}

// Publish sends an envelope on the topic of (topicTarget, commType). It
// reports success as a boolean: false when the bridge is not started, the
// topic has no registered publisher, or the backend rejects the send. It
// never panics and never blocks beyond the backend's own timeout.
func (b *Bridge) Publish(ctx context.Context, topicTarget string, commType message.CommunicationType, env *message.Envelope) bool {
	b.mu.Lock()
	if !b.started || b.stopped {
		b.mu.Unlock()
		b.drop("stopped", "bridge not running",
			"target", topicTarget, "type", string(commType))
		return false
	}
	handle, ok := b.publishers[topicKey{componentID: topicTarget, commType: commType}]
	b.mu.Unlock()

	if !ok {
		b.drop("topic_unavailable", "no publisher registered for target",
			"target", topicTarget, "type", string(commType))
		return false
	}

	data, err := env.Encode()
	if err != nil {
		b.drop("encode_failure", "envelope did not encode",
			"envelope_id", env.ID, "error", err)
		return false
	}

	if err := b.backend.Publish(ctx, handle.Topic, data); err != nil {
		b.drop("backend_error", "backend rejected publish",
			"topic", handle.Topic, "envelope_id", env.ID, "error", err)
		return false
	}

	if b.metrics != nil {
		b.metrics.MessagesPublished.WithLabelValues(b.name, handle.Topic).Inc()
	}
	return true
}

func (b *Bridge) drop(reason, msg string, args ...any) {
	b.logger.Warn(msg, args...)
	if b.metrics != nil {
		b.metrics.MessagesDropped.WithLabelValues(b.name, reason).Inc()
	}
}

// Subscribe registers a handler for every envelope published to topic.
// Inbound bytes that do not decode into a valid envelope are dropped and
// logged. A handler that panics is caught and logged; delivery of later
// messages continues.
func (b *Bridge) Subscribe(ctx context.Context, topic string, handler EnvelopeHandler) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return errors.ErrAlreadyStopped
	}
	b.mu.Unlock()

	raw := func(msgCtx context.Context, data []byte) {
		env, err := message.DecodeEnvelope(data)
		if err != nil {
			b.drop("malformed", "inbound envelope did not decode",
				"topic", topic, "error", err)
			return
		}

		start := time.Now()
		b.invoke(msgCtx, topic, env, handler)
		if b.metrics != nil {
			b.metrics.DispatchDuration.WithLabelValues(b.name, topic).Observe(time.Since(start).Seconds())
			b.metrics.MessagesDelivered.WithLabelValues(b.name, topic).Inc()
		}
	}

	if err := b.backend.Subscribe(ctx, topic, raw); err != nil {
		return errors.Wrap(err, "Bridge", "Subscribe", "subscribe to "+topic)
	}

	if b.metrics != nil {
		b.metrics.ActiveSubscribers.WithLabelValues(topic).Inc()
	}
	b.logger.Debug("subscriber registered", "topic", topic)
	return nil
}

// invoke runs the handler with panic recovery so one faulty subscriber
// cannot stall the dispatch path.
func (b *Bridge) invoke(ctx context.Context, topic string, env *message.Envelope, handler EnvelopeHandler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("subscriber handler panicked",
				"topic", topic,
				"envelope_id", env.ID,
				"source", env.SourceID,
				"panic", r)
			if b.metrics != nil {
				b.metrics.HandlerErrors.WithLabelValues(b.name, topic).Inc()
			}
		}
	}()
	handler(ctx, env)
}

// Unsubscribe removes every subscription this bridge holds on a topic
func (b *Bridge) Unsubscribe(topic string) error {
	if err := b.backend.Unsubscribe(topic); err != nil {
		return errors.Wrap(err, "Bridge", "Unsubscribe", "unsubscribe from "+topic)
	}
	if b.metrics != nil {
		b.metrics.ActiveSubscribers.DeleteLabelValues(topic)
	}
	return nil
}

// Registry returns the payload registry inbound envelopes decode through
func (b *Bridge) Registry() *message.Registry {
	return b.registry
}

// BridgeStatus is the read-only view the status query returns. The GUI
// dashboard polls it; no push interface exists.
type BridgeStatus struct {
	Name    string        `json:"name"`
	Running bool          `json:"running"`
	Backend BackendStatus `json:"backend"`
}

// Status reports the bridge's running state and per-topic counters.
func (b *Bridge) Status() BridgeStatus {
	b.mu.Lock()
	running := b.started && !b.stopped
	b.mu.Unlock()

	backendStatus := b.backend.Status()

	if b.metrics != nil {
		for _, ts := range backendStatus.Topics {
			b.metrics.QueueDepth.WithLabelValues(ts.Topic).Set(float64(ts.QueueDepth))
		}
	}

	return BridgeStatus{
		Name:    b.name,
		Running: running && backendStatus.Running,
		Backend: backendStatus,
	}
}

// NewCommandMessage builds a command envelope addressed to target
func (b *Bridge) NewCommandMessage(sourceID, targetID, command string, params map[string]any, opts ...message.EnvelopeOption) (*message.Envelope, error) {
	return message.NewCommandMessage(sourceID, targetID, command, params, opts...)
}

// NewTelemetryMessage builds a telemetry envelope
func (b *Bridge) NewTelemetryMessage(sourceID, targetID, telemetryType string, values map[string]any, opts ...message.EnvelopeOption) (*message.Envelope, error) {
	return message.NewTelemetryMessage(sourceID, targetID, telemetryType, values, opts...)
}

// NewCoordinationMessage builds a coordination envelope
func (b *Bridge) NewCoordinationMessage(sourceID, targetID, coordinationType, action string, params map[string]any, opts ...message.EnvelopeOption) (*message.Envelope, error) {
	return message.NewCoordinationMessage(sourceID, targetID, coordinationType, action, params, opts...)
}
