package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/c360/componentbus/message"
)

// DefaultTopicNamespace prefixes every topic name the bridge derives.
const DefaultTopicNamespace = "micro_robot"

// Handler receives raw envelope bytes for a topic.
type Handler func(ctx context.Context, data []byte)

// Backend is the transport contract behind the bridge. The mock backend and
// the NATS backend both satisfy it; callers cannot observe which one is
// active except through timing.
type Backend interface {
	// Start opens the transport. Publish and Subscribe fail before Start.
	Start(ctx context.Context) error
	// Stop drains in-flight dispatch and releases resources.
	Stop(timeout time.Duration) error
	// CreatePublisher registers a topic for publishing. Idempotent.
	CreatePublisher(topic string) error
	// Publish sends raw bytes to every subscriber of the topic.
	Publish(ctx context.Context, topic string, data []byte) error
	// Subscribe registers a handler for a topic. Every subscriber of a
	// topic receives every message published to it.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	// Unsubscribe removes all of this backend's subscriptions on a topic.
	Unsubscribe(topic string) error
	// Status reports transport health and per-topic counters.
	Status() BackendStatus
}

// TopicStatus describes one topic's runtime state.
type TopicStatus struct {
	Topic       string `json:"topic"`
	Subscribers int    `json:"subscribers"`
	QueueDepth  int    `json:"queue_depth"`
}

// BackendStatus is the read-only view a status query returns.
type BackendStatus struct {
	Kind    string        `json:"kind"`
	Running bool          `json:"running"`
	Topics  []TopicStatus `json:"topics"`
}

// TopicName derives the deterministic topic for a component and
// communication type: "<namespace>.<type>.<component>".
func TopicName(namespace string, commType message.CommunicationType, componentID string) string {
	if namespace == "" {
		namespace = DefaultTopicNamespace
	}
	return fmt.Sprintf("%s.%s.%s", namespace, commType, componentID)
}
