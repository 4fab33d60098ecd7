package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/componentbus/errors"
)

// defaultMockBuffer is the per-subscriber queue capacity.
const defaultMockBuffer = 256

// mockSubscriber owns one handler and a dedicated delivery worker. The
// buffered channel decouples publishers from handler execution, so a slow
// handler only backs up its own queue.
type mockSubscriber struct {
	topic   string
	handler Handler
	queue   chan []byte
	logger  *slog.Logger
}

func (s *mockSubscriber) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for data := range s.queue {
		s.dispatch(data)
	}
}

// dispatch invokes the handler with panic recovery so a faulty subscriber
// cannot take down the worker or block later messages.
func (s *mockSubscriber) dispatch(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscriber handler panicked",
				"topic", s.topic,
				"panic", r)
		}
	}()
	s.handler(context.Background(), data)
}

// MockBackend is the in-process transport: publishers are wired directly to
// subscribers. Messages from a single publisher arrive in publish order;
// ordering between publishers is unspecified.
type MockBackend struct {
	logger  *slog.Logger
	bufSize int

	mu      sync.Mutex
	running bool
	stopped bool
	topics  map[string]struct{}
	subs    map[string][]*mockSubscriber
	dropped func(topic string)
	wg      sync.WaitGroup
}

// MockOption configures a MockBackend
type MockOption func(*MockBackend)

// WithMockLogger sets the logger for the mock backend
func WithMockLogger(logger *slog.Logger) MockOption {
	return func(b *MockBackend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMockBufferSize sets the per-subscriber queue capacity
func WithMockBufferSize(n int) MockOption {
	return func(b *MockBackend) {
		if n > 0 {
			b.bufSize = n
		}
	}
}

// NewMockBackend creates an in-process backend
func NewMockBackend(opts ...MockOption) *MockBackend {
	b := &MockBackend{
		logger:  slog.Default(),
		bufSize: defaultMockBuffer,
		topics:  make(map[string]struct{}),
		subs:    make(map[string][]*mockSubscriber),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start implements Backend
func (b *MockBackend) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return errors.ErrAlreadyStopped
	}
	b.running = true
	return nil
}

// Stop closes every subscriber queue and waits for the workers to drain
// buffered messages, up to the timeout.
func (b *MockBackend) Stop(timeout time.Duration) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	b.stopped = true

	for _, subs := range b.subs {
		for _, s := range subs {
			close(s.queue)
		}
	}
	b.subs = make(map[string][]*mockSubscriber)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(
			errors.ErrConnectionTimeout,
			"MockBackend", "Stop", "drain subscribers")
	}
}

// CreatePublisher implements Backend. Registering the same topic twice is a
// no-op.
func (b *MockBackend) CreatePublisher(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return errors.ErrAlreadyStopped
	}
	b.topics[topic] = struct{}{}
	return nil
}

// Publish enqueues data on every subscriber of the topic. A subscriber whose
// queue is full drops the message rather than blocking the publisher.
func (b *MockBackend) Publish(_ context.Context, topic string, data []byte) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return errors.ErrNotStarted
	}
	if _, ok := b.topics[topic]; !ok {
		b.mu.Unlock()
		return errors.ErrTopicUnavailable
	}
	subs := make([]*mockSubscriber, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	dropped := b.dropped
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case s.queue <- data:
		default:
			b.logger.Warn("subscriber queue full, dropping message", "topic", topic)
			if dropped != nil {
				dropped(topic)
			}
		}
	}
	return nil
}

// Subscribe registers a handler and starts its delivery worker
func (b *MockBackend) Subscribe(_ context.Context, topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return errors.ErrAlreadyStopped
	}

	s := &mockSubscriber{
		topic:   topic,
		handler: handler,
		queue:   make(chan []byte, b.bufSize),
		logger:  b.logger,
	}
	b.subs[topic] = append(b.subs[topic], s)

	b.wg.Add(1)
	go s.run(&b.wg)
	return nil
}

// Unsubscribe removes all subscribers of a topic and stops their workers
func (b *MockBackend) Unsubscribe(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subs[topic] {
		close(s.queue)
	}
	delete(b.subs, topic)
	return nil
}

// Status implements Backend
func (b *MockBackend) Status() BackendStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	status := BackendStatus{
		Kind:    "mock",
		Running: b.running,
		Topics:  make([]TopicStatus, 0, len(b.topics)),
	}
	for topic := range b.topics {
		ts := TopicStatus{Topic: topic, Subscribers: len(b.subs[topic])}
		for _, s := range b.subs[topic] {
			ts.QueueDepth += len(s.queue)
		}
		status.Topics = append(status.Topics, ts)
	}
	return status
}

// onDrop installs a hook invoked when a full subscriber queue drops a
// message. Used by the bridge to feed metrics.
func (b *MockBackend) onDrop(fn func(topic string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropped = fn
}
