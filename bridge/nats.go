package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/componentbus/errors"
	"github.com/c360/componentbus/natsclient"
)

// NATSBackend delegates the Backend contract to a NATS connection. Topic
// names map directly onto NATS subjects; CreatePublisher only records the
// topic since NATS subjects need no declaration.
type NATSBackend struct {
	client *natsclient.Client
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	topics  map[string]struct{}
	subs    map[string]int
}

// NewNATSBackend wraps an existing NATS client. The backend owns the
// client's lifecycle from Start onward.
func NewNATSBackend(client *natsclient.Client, logger *slog.Logger) *NATSBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSBackend{
		client: client,
		logger: logger,
		topics: make(map[string]struct{}),
		subs:   make(map[string]int),
	}
}

// Start connects the client unless it is already connected
func (b *NATSBackend) Start(ctx context.Context) error {
	if !b.client.IsHealthy() {
		if err := b.client.Connect(ctx); err != nil {
			return errors.WrapTransient(err, "NATSBackend", "Start", "connect")
		}
		if err := b.client.WaitForConnection(ctx); err != nil {
			return errors.WrapTransient(err, "NATSBackend", "Start", "wait for connection")
		}
	}

	b.mu.Lock()
	b.running = true
	b.mu.Unlock()
	return nil
}

// Stop drains and closes the connection
func (b *NATSBackend) Stop(timeout time.Duration) error {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := b.client.Close(ctx); err != nil {
		return errors.Wrap(err, "NATSBackend", "Stop", "close client")
	}
	return nil
}

// CreatePublisher implements Backend
func (b *NATSBackend) CreatePublisher(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = struct{}{}
	return nil
}

// Publish implements Backend
func (b *NATSBackend) Publish(ctx context.Context, topic string, data []byte) error {
	if err := b.client.Publish(ctx, topic, data); err != nil {
		return errors.WrapTransient(err, "NATSBackend", "Publish", "publish to "+topic)
	}
	return nil
}

// Subscribe implements Backend
func (b *NATSBackend) Subscribe(ctx context.Context, topic string, handler Handler) error {
	err := b.client.Subscribe(ctx, topic, func(msgCtx context.Context, data []byte) {
		handler(msgCtx, data)
	})
	if err != nil {
		return errors.WrapTransient(err, "NATSBackend", "Subscribe", "subscribe to "+topic)
	}

	b.mu.Lock()
	b.subs[topic]++
	b.mu.Unlock()
	return nil
}

// Unsubscribe implements Backend
func (b *NATSBackend) Unsubscribe(topic string) error {
	b.mu.Lock()
	delete(b.subs, topic)
	b.mu.Unlock()

	return b.client.Unsubscribe(topic)
}

// Status implements Backend. Queue depths are not observable through core
// NATS, so they report zero.
func (b *NATSBackend) Status() BackendStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	status := BackendStatus{
		Kind:    "nats",
		Running: b.running && b.client.IsHealthy(),
		Topics:  make([]TopicStatus, 0, len(b.topics)),
	}
	for topic := range b.topics {
		status.Topics = append(status.Topics, TopicStatus{
			Topic:       topic,
			Subscribers: b.subs[topic],
		})
	}
	return status
}
