// Package communicator provides the per-component façade over the bridge:
// typed send helpers, handler registration, and the component's receive loop.
package communicator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/c360/componentbus/bridge"
	"github.com/c360/componentbus/errors"
	"github.com/c360/componentbus/message"
)

// CommandHandler processes one inbound command addressed to this component.
type CommandHandler func(ctx context.Context, sourceID string, params map[string]any)

// TelemetryHandler processes one telemetry update from a peer.
type TelemetryHandler func(ctx context.Context, sourceID, telemetryType string, values map[string]any)

// CoordinationHandler processes one coordination envelope. The envelope is
// passed through so handlers can read correlation ids for request-response.
type CoordinationHandler func(ctx context.Context, env *message.Envelope, data *message.CoordinationData)

// StateHandler processes a peer's state snapshot.
type StateHandler func(ctx context.Context, sourceID string, state *message.ComponentState)

// Communicator is a component's connection to the bus. Each component owns
// one; it registers handlers before Start and sends through the typed
// helpers. Handler registration is last-write-wins per key.
type Communicator struct {
	componentID string
	bridge      *bridge.Bridge
	logger      *slog.Logger

	mu                   sync.Mutex
	started              bool
	commandHandlers      map[string]CommandHandler
	coordinationHandlers map[string]CoordinationHandler
	peerSubscriptions    []string
}

// New creates a communicator for a component
func New(componentID string, b *bridge.Bridge, logger *slog.Logger) (*Communicator, error) {
	if componentID == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("component id is required"),
			"Communicator", "New", "component validation")
	}
	if b == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("bridge is required"),
			"Communicator", "New", "bridge validation")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Communicator{
		componentID:          componentID,
		bridge:               b,
		logger:               logger.With("component", componentID),
		commandHandlers:      make(map[string]CommandHandler),
		coordinationHandlers: make(map[string]CoordinationHandler),
	}, nil
}

// ComponentID returns the owning component's id
func (c *Communicator) ComponentID() string {
	return c.componentID
}

// Bridge returns the underlying bridge
func (c *Communicator) Bridge() *bridge.Bridge {
	return c.bridge
}

// RegisterCommandHandler maps a command name to a handler. Registering the
// same name again replaces the previous handler.
func (c *Communicator) RegisterCommandHandler(command string, handler CommandHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commandHandlers[command] = handler
}

// RegisterCoordinationHandler maps a coordination action to a handler
func (c *Communicator) RegisterCoordinationHandler(action string, handler CoordinationHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coordinationHandlers[action] = handler
}

// Start registers this component's publish channels and subscribes its
// inbound topics. Calling Start twice is a no-op.
func (c *Communicator) Start(ctx context.Context) error {
	// The lock covers the whole sequence so concurrent Start calls cannot
	// both subscribe; handlers never run under this lock
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	// Own outbound channels
	for _, commType := range []message.CommunicationType{
		message.CommTypeTelemetry,
		message.CommTypeState,
		message.CommTypeError,
	} {
		if _, err := c.bridge.CreatePublisher(c.componentID, commType); err != nil {
			return errors.Wrap(err, "Communicator", "Start", "create publisher "+string(commType))
		}
	}

	// Inbound channels other components publish to
	for _, commType := range []message.CommunicationType{
		message.CommTypeCommand,
		message.CommTypeCoordination,
	} {
		if _, err := c.bridge.CreatePublisher(c.componentID, commType); err != nil {
			return errors.Wrap(err, "Communicator", "Start", "create publisher "+string(commType))
		}
	}

	commandTopic := c.bridge.Topic(message.CommTypeCommand, c.componentID)
	if err := c.bridge.Subscribe(ctx, commandTopic, c.dispatchCommand); err != nil {
		return errors.Wrap(err, "Communicator", "Start", "subscribe commands")
	}

	coordinationTopic := c.bridge.Topic(message.CommTypeCoordination, c.componentID)
	if err := c.bridge.Subscribe(ctx, coordinationTopic, c.dispatchCoordination); err != nil {
		return errors.Wrap(err, "Communicator", "Start", "subscribe coordination")
	}

	c.started = true
	c.logger.Info("communicator started")
	return nil
}

// Stop unsubscribes this communicator's topics. Stopping a communicator
// that never started is a no-op.
func (c *Communicator) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	peers := c.peerSubscriptions
	c.peerSubscriptions = nil
	c.mu.Unlock()

	topics := []string{
		c.bridge.Topic(message.CommTypeCommand, c.componentID),
		c.bridge.Topic(message.CommTypeCoordination, c.componentID),
	}
	topics = append(topics, peers...)

	for _, topic := range topics {
		if err := c.bridge.Unsubscribe(topic); err != nil {
			c.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
		}
	}

	c.logger.Info("communicator stopped")
	return nil
}

// running reports whether Start has completed and Stop has not been
// called since.
func (c *Communicator) running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// forMe reports whether an envelope is addressed to this component. An
// empty target is a broadcast.
func (c *Communicator) forMe(env *message.Envelope) bool {
	return env.TargetID == "" || env.TargetID == c.componentID
}

func (c *Communicator) dispatchCommand(ctx context.Context, env *message.Envelope) {
	if !c.forMe(env) {
		return
	}

	payload, err := env.DecodePayload(c.bridge.Registry())
	if err != nil {
		c.logger.Warn("command payload did not decode",
			"envelope_id", env.ID, "source", env.SourceID, "error", err)
		return
	}
	cmd, ok := payload.(*message.CommandData)
	if !ok {
		// Typed payloads on the command topic belong to other dispatchers
		c.logger.Debug("non-command payload on command topic",
			"envelope_id", env.ID, "payload_type", env.PayloadType)
		return
	}

	c.mu.Lock()
	handler, ok := c.commandHandlers[cmd.Command]
	c.mu.Unlock()

	if !ok {
		// Unknown commands are expected when communicators share a topic
		c.logger.Debug("unhandled command dropped",
			"command", cmd.Command, "source", env.SourceID, "envelope_id", env.ID)
		return
	}

	handler(ctx, env.SourceID, cmd.Params)
}

func (c *Communicator) dispatchCoordination(ctx context.Context, env *message.Envelope) {
	if !c.forMe(env) {
		return
	}

	payload, err := env.DecodePayload(c.bridge.Registry())
	if err != nil {
		c.logger.Warn("coordination payload did not decode",
			"envelope_id", env.ID, "source", env.SourceID, "error", err)
		return
	}
	data, ok := payload.(*message.CoordinationData)
	if !ok {
		c.logger.Warn("coordination envelope carried unexpected payload",
			"envelope_id", env.ID, "payload_type", env.PayloadType)
		return
	}

	c.mu.Lock()
	handler, ok := c.coordinationHandlers[data.Action]
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("unhandled coordination action dropped",
			"action", data.Action, "source", env.SourceID, "envelope_id", env.ID)
		return
	}

	handler(ctx, env, data)
}

// SendCommand publishes a command to the target's command topic. Returns
// false when the bridge reports failure.
func (c *Communicator) SendCommand(ctx context.Context, targetID, command string, params map[string]any, opts ...message.EnvelopeOption) bool {
	if !c.running() {
		c.logger.Warn("command rejected, communicator not running", "command", command, "target", targetID)
		return false
	}
	if _, err := c.bridge.CreatePublisher(targetID, message.CommTypeCommand); err != nil {
		c.logger.Warn("command publisher unavailable", "target", targetID, "error", err)
		return false
	}

	env, err := message.NewCommandMessage(c.componentID, targetID, command, params, opts...)
	if err != nil {
		c.logger.Warn("command did not build", "command", command, "error", err)
		return false
	}
	return c.bridge.Publish(ctx, targetID, message.CommTypeCommand, env)
}

// SendTelemetry broadcasts telemetry on this component's telemetry topic
func (c *Communicator) SendTelemetry(ctx context.Context, telemetryType string, values map[string]any, opts ...message.EnvelopeOption) bool {
	if !c.running() {
		c.logger.Warn("telemetry rejected, communicator not running", "telemetry_type", telemetryType)
		return false
	}
	env, err := message.NewTelemetryMessage(c.componentID, "", telemetryType, values, opts...)
	if err != nil {
		c.logger.Warn("telemetry did not build", "telemetry_type", telemetryType, "error", err)
		return false
	}
	return c.bridge.Publish(ctx, c.componentID, message.CommTypeTelemetry, env)
}

// SendState broadcasts a state snapshot on this component's state topic
func (c *Communicator) SendState(ctx context.Context, state *message.ComponentState, opts ...message.EnvelopeOption) bool {
	if !c.running() {
		c.logger.Warn("state rejected, communicator not running")
		return false
	}
	env, err := message.NewEnvelope(message.CommTypeState, c.componentID, "", state, opts...)
	if err != nil {
		c.logger.Warn("state did not build", "error", err)
		return false
	}
	return c.bridge.Publish(ctx, c.componentID, message.CommTypeState, env)
}

// SendCoordination publishes a coordination action to the target's
// coordination topic. Options carry correlation ids for request-response.
func (c *Communicator) SendCoordination(
	ctx context.Context,
	targetID, coordinationType, action string,
	params map[string]any,
	opts ...message.EnvelopeOption,
) bool {
	if !c.running() {
		c.logger.Warn("coordination rejected, communicator not running", "action", action, "target", targetID)
		return false
	}
	if _, err := c.bridge.CreatePublisher(targetID, message.CommTypeCoordination); err != nil {
		c.logger.Warn("coordination publisher unavailable", "target", targetID, "error", err)
		return false
	}

	env, err := message.NewCoordinationMessage(c.componentID, targetID, coordinationType, action, params, opts...)
	if err != nil {
		c.logger.Warn("coordination did not build", "action", action, "error", err)
		return false
	}
	return c.bridge.Publish(ctx, targetID, message.CommTypeCoordination, env)
}

// SendError broadcasts an error report on this component's error topic
func (c *Communicator) SendError(ctx context.Context, report *message.ErrorMessage, opts ...message.EnvelopeOption) bool {
	if !c.running() {
		c.logger.Warn("error report rejected, communicator not running")
		return false
	}
	env, err := message.NewEnvelope(message.CommTypeError, c.componentID, "", report, opts...)
	if err != nil {
		c.logger.Warn("error report did not build", "error", err)
		return false
	}
	return c.bridge.Publish(ctx, c.componentID, message.CommTypeError, env)
}

// SubscribeTelemetry listens to a peer's telemetry stream
func (c *Communicator) SubscribeTelemetry(ctx context.Context, sourceID string, handler TelemetryHandler) error {
	topic := c.bridge.Topic(message.CommTypeTelemetry, sourceID)
	err := c.bridge.Subscribe(ctx, topic, func(msgCtx context.Context, env *message.Envelope) {
		if !c.forMe(env) {
			return
		}
		payload, err := env.DecodePayload(c.bridge.Registry())
		if err != nil {
			c.logger.Warn("telemetry payload did not decode",
				"envelope_id", env.ID, "source", env.SourceID, "error", err)
			return
		}
		data, ok := payload.(*message.TelemetryData)
		if !ok {
			return
		}
		handler(msgCtx, env.SourceID, data.TelemetryType, data.Values)
	})
	if err != nil {
		return errors.Wrap(err, "Communicator", "SubscribeTelemetry", "subscribe "+topic)
	}

	c.trackPeer(topic)
	return nil
}

// SubscribeState listens to a peer's state snapshots
func (c *Communicator) SubscribeState(ctx context.Context, sourceID string, handler StateHandler) error {
	topic := c.bridge.Topic(message.CommTypeState, sourceID)
	err := c.bridge.Subscribe(ctx, topic, func(msgCtx context.Context, env *message.Envelope) {
		if !c.forMe(env) {
			return
		}
		payload, err := env.DecodePayload(c.bridge.Registry())
		if err != nil {
			c.logger.Warn("state payload did not decode",
				"envelope_id", env.ID, "source", env.SourceID, "error", err)
			return
		}
		state, ok := payload.(*message.ComponentState)
		if !ok {
			return
		}
		handler(msgCtx, env.SourceID, state)
	})
	if err != nil {
		return errors.Wrap(err, "Communicator", "SubscribeState", "subscribe "+topic)
	}

	c.trackPeer(topic)
	return nil
}

func (c *Communicator) trackPeer(topic string) {
	c.mu.Lock()
	c.peerSubscriptions = append(c.peerSubscriptions, topic)
	c.mu.Unlock()
}
