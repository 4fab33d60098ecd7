// Package pattern provides reusable protocol helpers layered on the
// communicator: typed publish-subscribe and request-response with
// correlation and timeout.
package pattern

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360/componentbus/communicator"
	"github.com/c360/componentbus/errors"
	"github.com/c360/componentbus/message"
)

// Callback receives a decoded payload from a subscription. The payload's
// concrete type follows the envelope's payload_type; callers type-assert to
// the payload they expect.
type Callback func(ctx context.Context, sourceID string, payload message.Payload)

// Publisher wraps payloads into envelopes and sends them on one topic,
// identified by (componentID, communication type).
type Publisher struct {
	comm        *communicator.Communicator
	commType    message.CommunicationType
	componentID string
}

// NewPublisher creates a publisher and registers its topic with the bridge
func NewPublisher(comm *communicator.Communicator, commType message.CommunicationType, componentID string) (*Publisher, error) {
	if comm == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("communicator is required"),
			"Publisher", "NewPublisher", "communicator validation")
	}
	if _, err := comm.Bridge().CreatePublisher(componentID, commType); err != nil {
		return nil, errors.Wrap(err, "Publisher", "NewPublisher", "register topic")
	}

	return &Publisher{
		comm:        comm,
		commType:    commType,
		componentID: componentID,
	}, nil
}

// Publish wraps the payload and sends it. Returns false when the bridge
// reports failure.
func (p *Publisher) Publish(ctx context.Context, payload message.Payload, opts ...message.EnvelopeOption) bool {
	env, err := message.NewEnvelope(p.commType, p.comm.ComponentID(), "", payload, opts...)
	if err != nil {
		return false
	}
	return p.comm.Bridge().Publish(ctx, p.componentID, p.commType, env)
}

// Subscriber decodes every envelope on one topic and hands the typed
// payload to its callback. Multiple subscribers on the same topic each
// receive every message.
type Subscriber struct {
	comm  *communicator.Communicator
	topic string
}

// NewSubscriber registers callback for the topic of (componentID, commType)
func NewSubscriber(
	ctx context.Context,
	comm *communicator.Communicator,
	commType message.CommunicationType,
	componentID string,
	callback Callback,
	logger *slog.Logger,
) (*Subscriber, error) {
	if comm == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("communicator is required"),
			"Subscriber", "NewSubscriber", "communicator validation")
	}
	if logger == nil {
		logger = slog.Default()
	}

	topic := comm.Bridge().Topic(commType, componentID)
	err := comm.Bridge().Subscribe(ctx, topic, func(msgCtx context.Context, env *message.Envelope) {
		payload, err := env.DecodePayload(comm.Bridge().Registry())
		if err != nil {
			logger.Warn("subscription payload did not decode",
				"topic", topic, "envelope_id", env.ID, "error", err)
			return
		}
		callback(msgCtx, env.SourceID, payload)
	})
	if err != nil {
		return nil, errors.Wrap(err, "Subscriber", "NewSubscriber", "subscribe "+topic)
	}

	return &Subscriber{comm: comm, topic: topic}, nil
}

// Topic returns the subscribed topic name
func (s *Subscriber) Topic() string {
	return s.topic
}

// Close removes the subscription
func (s *Subscriber) Close() error {
	return s.comm.Bridge().Unsubscribe(s.topic)
}
