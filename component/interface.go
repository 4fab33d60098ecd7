// Package component provides the domain-facing object simulated components
// use: connection tracking, typed callbacks, and command issuing over the
// bus, without touching bridge internals.
package component

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/componentbus/bridge"
	"github.com/c360/componentbus/communicator"
	"github.com/c360/componentbus/errors"
	"github.com/c360/componentbus/message"
	"github.com/c360/componentbus/pattern"
	"github.com/c360/componentbus/pkg/timestamp"
)

// Status tracks the interface lifecycle
type Status int

// Lifecycle states
const (
	StatusCreated Status = iota
	StatusRunning
	StatusStopped
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Coordination actions for the peer link handshakes.
const (
	connectAction    = "connect"
	disconnectAction = "disconnect"
)

// StateCallback fires when a connected peer publishes a state snapshot.
type StateCallback func(ctx context.Context, state *message.ComponentState)

// MotionCallback fires when a motion command addressed to this component
// arrives on its command topic.
type MotionCallback func(ctx context.Context, sourceID string, cmd *message.MotionCommand)

// SensorCallback fires when a watched sensor publishes a reading.
type SensorCallback func(ctx context.Context, sourceID string, data *message.SensorData)

// TaskCallback fires when a task assignment addressed to this component
// arrives on its command topic.
type TaskCallback func(ctx context.Context, sourceID string, task *message.TaskAssignment)

// ErrorCallback fires when a connected peer publishes a fault report.
type ErrorCallback func(ctx context.Context, sourceID string, report *message.ErrorMessage)

// Interface is a component's handle on the bus: it owns a communicator, a
// request-response pattern for handshakes, and one callback slot per
// category. Registering a callback twice replaces the previous one.
type Interface struct {
	id       string
	compType message.ComponentType
	bridge   *bridge.Bridge
	comm     *communicator.Communicator
	reqresp  *pattern.RequestResponse
	logger   *Logger

	mu         sync.Mutex
	status     Status
	state      *message.ComponentState
	peerStates map[string]*message.ComponentState
	stateCb    StateCallback
	motionCb   MotionCallback
	sensorCb   SensorCallback
	taskCb     TaskCallback
	errorCb    ErrorCallback
}

// NewInterface creates a component interface on a bridge
func NewInterface(id string, compType message.ComponentType, b *bridge.Bridge, logger *slog.Logger) (*Interface, error) {
	if !compType.IsValid() {
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown component type %q", compType),
			"Interface", "NewInterface", "component type validation")
	}

	comm, err := communicator.New(id, b, logger)
	if err != nil {
		return nil, errors.Wrap(err, "Interface", "NewInterface", "create communicator")
	}

	rr, err := pattern.NewRequestResponse(comm, pattern.WithRequestLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "Interface", "NewInterface", "create request-response")
	}

	ci := &Interface{
		id:         id,
		compType:   compType,
		bridge:     b,
		comm:       comm,
		reqresp:    rr,
		status:     StatusCreated,
		state:      message.NewComponentState(id, compType),
		peerStates: make(map[string]*message.ComponentState),
	}
	ci.logger = NewLogger(id, comm, logger)

	rr.RegisterRequestHandler(connectAction, ci.handleConnect)
	rr.RegisterRequestHandler(disconnectAction, ci.handleDisconnect)
	return ci, nil
}

// ID returns the component id
func (ci *Interface) ID() string {
	return ci.id
}

// Status returns the current lifecycle state
func (ci *Interface) Status() Status {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.status
}

// State returns a copy of the current component state
func (ci *Interface) State() *message.ComponentState {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.state.Clone()
}

// PeerState returns the most recent state snapshot received from a
// connected peer, or nil when none has arrived.
func (ci *Interface) PeerState(peerID string) *message.ComponentState {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	state, ok := ci.peerStates[peerID]
	if !ok {
		return nil
	}
	return state.Clone()
}

// Start cascades to the communicator, subscribes the command topic for
// motion dispatch, and announces the component with an initial state
// publish. Starting twice is a no-op.
func (ci *Interface) Start(ctx context.Context) error {
	// The lock covers the startup sequence so concurrent Start calls
	// cannot both subscribe the command topic
	ci.mu.Lock()
	if ci.status == StatusRunning {
		ci.mu.Unlock()
		return nil
	}
	if ci.status == StatusStopped {
		ci.mu.Unlock()
		return errors.ErrAlreadyStopped
	}

	if err := ci.comm.Start(ctx); err != nil {
		ci.mu.Unlock()
		return errors.Wrap(err, "Interface", "Start", "start communicator")
	}

	// Motion commands ride the command topic as typed payloads alongside
	// the communicator's named commands
	commandTopic := ci.bridge.Topic(message.CommTypeCommand, ci.id)
	if err := ci.bridge.Subscribe(ctx, commandTopic, ci.dispatchMotion); err != nil {
		ci.mu.Unlock()
		return errors.Wrap(err, "Interface", "Start", "subscribe motion commands")
	}

	ci.status = StatusRunning
	ci.state.Active = true
	ci.mu.Unlock()

	ci.PublishState(ctx)
	ci.logger.Info("component interface started", "type", string(ci.compType))
	return nil
}

// Stop publishes a final state with active=false as a graceful-leave signal,
// then releases the component's topics. Stop is idempotent.
func (ci *Interface) Stop(ctx context.Context) error {
	ci.mu.Lock()
	if ci.status != StatusRunning {
		ci.mu.Unlock()
		return nil
	}
	ci.status = StatusStopped
	ci.state.Active = false
	ci.mu.Unlock()

	ci.PublishState(ctx)

	if err := ci.comm.Stop(); err != nil {
		return errors.Wrap(err, "Interface", "Stop", "stop communicator")
	}

	ci.logger.Info("component interface stopped")
	return nil
}

// RegisterStateUpdateCallback sets the peer-state callback slot
func (ci *Interface) RegisterStateUpdateCallback(cb StateCallback) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.stateCb = cb
}

// RegisterMotionCallback sets the motion-command callback slot
func (ci *Interface) RegisterMotionCallback(cb MotionCallback) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.motionCb = cb
}

// RegisterSensorCallback sets the sensor-data callback slot
func (ci *Interface) RegisterSensorCallback(cb SensorCallback) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.sensorCb = cb
}

// RegisterTaskCallback sets the task-assignment callback slot
func (ci *Interface) RegisterTaskCallback(cb TaskCallback) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.taskCb = cb
}

// RegisterErrorCallback sets the peer-fault callback slot
func (ci *Interface) RegisterErrorCallback(cb ErrorCallback) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	ci.errorCb = cb
}

// SendCommand is a thin pass-through to the communicator
func (ci *Interface) SendCommand(ctx context.Context, targetID, command string, params map[string]any) bool {
	return ci.comm.SendCommand(ctx, targetID, command, params)
}

// SendMotionCommand publishes a typed motion command on the target's
// command topic.
func (ci *Interface) SendMotionCommand(ctx context.Context, targetID string, cmd *message.MotionCommand) bool {
	if _, err := ci.bridge.CreatePublisher(targetID, message.CommTypeCommand); err != nil {
		ci.logger.Warn("motion publisher unavailable", "target", targetID, "error", err)
		return false
	}
	env, err := message.NewEnvelope(message.CommTypeCommand, ci.id, targetID, cmd,
		message.WithPriority(cmd.Priority))
	if err != nil {
		ci.logger.Warn("motion command did not build", "target", targetID, "error", err)
		return false
	}
	return ci.bridge.Publish(ctx, targetID, message.CommTypeCommand, env)
}

// SendSensorData broadcasts a sensor reading on this component's telemetry
// topic.
func (ci *Interface) SendSensorData(ctx context.Context, data *message.SensorData) bool {
	env, err := message.NewEnvelope(message.CommTypeTelemetry, ci.id, "", data)
	if err != nil {
		ci.logger.Warn("sensor data did not build", "error", err)
		return false
	}
	return ci.bridge.Publish(ctx, ci.id, message.CommTypeTelemetry, env)
}

// PublishState broadcasts the current state snapshot
func (ci *Interface) PublishState(ctx context.Context) bool {
	ci.mu.Lock()
	ci.state.Timestamp = timestamp.Now()
	snapshot := ci.state.Clone()
	ci.mu.Unlock()
	return ci.comm.SendState(ctx, snapshot)
}

// UpdateState applies fn to the component state under lock and broadcasts
// the result.
func (ci *Interface) UpdateState(ctx context.Context, fn func(*message.ComponentState)) bool {
	ci.mu.Lock()
	fn(ci.state)
	ci.state.Timestamp = timestamp.Now()
	snapshot := ci.state.Clone()
	ci.mu.Unlock()
	return ci.comm.SendState(ctx, snapshot)
}

// ConnectToComponent performs the state-sync handshake with a peer: it
// sends a connect request and, when the peer accepts, records the link in
// this side's published ComponentState and begins forwarding the peer's
// state snapshots to the state callback. The peer records the link on its
// own side when it handles the request.
func (ci *Interface) ConnectToComponent(ctx context.Context, otherID string, timeout time.Duration) bool {
	ok, _ := ci.reqresp.SendRequest(ctx, otherID, connectAction,
		map[string]any{"component_id": ci.id}, timeout)
	if !ok {
		ci.logger.Warn("connect handshake failed", "peer", otherID)
		return false
	}

	ci.addConnection(otherID)
	ci.PublishState(ctx)

	if err := ci.comm.SubscribeState(ctx, otherID, func(msgCtx context.Context, peerID string, state *message.ComponentState) {
		ci.mu.Lock()
		ci.peerStates[peerID] = state.Clone()
		cb := ci.stateCb
		ci.mu.Unlock()
		if cb != nil {
			cb(msgCtx, state)
		}
	}); err != nil {
		ci.logger.Warn("peer state subscription failed", "peer", otherID, "error", err)
	}

	if err := ci.watchPeerErrors(ctx, otherID); err != nil {
		ci.logger.Warn("peer error subscription failed", "peer", otherID, "error", err)
	}

	ci.logger.Info("connected to component", "peer", otherID)
	return true
}

// DisconnectFromComponent tears down a peer link: it notifies the peer so
// both sides drop the connection from their published state, and discards
// the cached peer snapshot. Returns false when the peer never acknowledged
// within the timeout; the local bookkeeping is cleaned up either way.
func (ci *Interface) DisconnectFromComponent(ctx context.Context, otherID string, timeout time.Duration) bool {
	ok, _ := ci.reqresp.SendRequest(ctx, otherID, disconnectAction,
		map[string]any{"component_id": ci.id}, timeout)

	ci.removeConnection(otherID)
	ci.PublishState(ctx)

	if !ok {
		ci.logger.Warn("disconnect not acknowledged", "peer", otherID)
		return false
	}
	ci.logger.Info("disconnected from component", "peer", otherID)
	return true
}

// BroadcastTask delivers a task assignment to every component it names.
// Returns true only when the publish reached all of them.
func (ci *Interface) BroadcastTask(ctx context.Context, task *message.TaskAssignment) bool {
	if len(task.AssignedComponents) == 0 {
		ci.logger.Warn("task has no assigned components", "task_id", task.TaskID)
		return false
	}

	delivered := true
	for _, targetID := range task.AssignedComponents {
		if _, err := ci.bridge.CreatePublisher(targetID, message.CommTypeCommand); err != nil {
			ci.logger.Warn("task publisher unavailable", "target", targetID, "error", err)
			return false
		}
		env, err := message.NewEnvelope(message.CommTypeCommand, ci.id, targetID, task,
			message.WithPriority(envelopePriority(task.Priority)))
		if err != nil {
			ci.logger.Warn("task assignment did not build", "task_id", task.TaskID, "error", err)
			return false
		}
		if !ci.bridge.Publish(ctx, targetID, message.CommTypeCommand, env) {
			delivered = false
		}
	}
	return delivered
}

// envelopePriority clamps a free-range task priority onto the envelope
// Priority levels. Task priorities carry domain meaning beyond the enum;
// the payload keeps the raw value.
func envelopePriority(p int) message.Priority {
	switch {
	case p <= int(message.PriorityLow):
		return message.PriorityLow
	case p >= int(message.PriorityCritical):
		return message.PriorityCritical
	default:
		return message.Priority(p)
	}
}

// CoordinateMotion sends the same motion command to a group of components.
// Returns true only when every target received the publish.
func (ci *Interface) CoordinateMotion(ctx context.Context, targetIDs []string, cmd *message.MotionCommand) bool {
	if len(targetIDs) == 0 {
		return false
	}
	delivered := true
	for _, targetID := range targetIDs {
		if !ci.SendMotionCommand(ctx, targetID, cmd) {
			delivered = false
		}
	}
	return delivered
}

// WatchSensor subscribes to a sensor component's telemetry stream and
// forwards typed readings to the sensor callback.
func (ci *Interface) WatchSensor(ctx context.Context, sensorID string) error {
	_, err := pattern.NewSubscriber(ctx, ci.comm, message.CommTypeTelemetry, sensorID,
		func(msgCtx context.Context, sourceID string, payload message.Payload) {
			data, ok := payload.(*message.SensorData)
			if !ok {
				return
			}
			ci.mu.Lock()
			cb := ci.sensorCb
			ci.mu.Unlock()
			if cb != nil {
				cb(msgCtx, sourceID, data)
			}
		}, nil)
	if err != nil {
		return errors.Wrap(err, "Interface", "WatchSensor", "subscribe "+sensorID)
	}
	return nil
}

// handleConnect is the responder side of the handshake
func (ci *Interface) handleConnect(ctx context.Context, sourceID string, _ map[string]any) (map[string]any, error) {
	ci.addConnection(sourceID)
	ci.PublishState(ctx)
	ci.logger.Info("accepted connection", "peer", sourceID)

	return map[string]any{
		"accepted":     true,
		"component_id": ci.id,
	}, nil
}

// handleDisconnect is the responder side of the teardown
func (ci *Interface) handleDisconnect(ctx context.Context, sourceID string, _ map[string]any) (map[string]any, error) {
	ci.removeConnection(sourceID)
	ci.PublishState(ctx)
	ci.logger.Info("peer disconnected", "peer", sourceID)

	return map[string]any{
		"accepted":     true,
		"component_id": ci.id,
	}, nil
}

func (ci *Interface) addConnection(otherID string) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	for _, existing := range ci.state.ConnectedComponents {
		if existing == otherID {
			return
		}
	}
	ci.state.ConnectedComponents = append(ci.state.ConnectedComponents, otherID)
}

func (ci *Interface) removeConnection(otherID string) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	delete(ci.peerStates, otherID)
	for i, existing := range ci.state.ConnectedComponents {
		if existing == otherID {
			ci.state.ConnectedComponents = append(
				ci.state.ConnectedComponents[:i], ci.state.ConnectedComponents[i+1:]...)
			return
		}
	}
}

// watchPeerErrors forwards a peer's fault reports to the error callback.
func (ci *Interface) watchPeerErrors(ctx context.Context, peerID string) error {
	topic := ci.bridge.Topic(message.CommTypeError, peerID)
	return ci.bridge.Subscribe(ctx, topic, func(msgCtx context.Context, env *message.Envelope) {
		if env.PayloadType != message.ErrorMessageType.Key() {
			return
		}
		payload, err := env.DecodePayload(ci.bridge.Registry())
		if err != nil {
			ci.logger.Warn("error report did not decode",
				"envelope_id", env.ID, "source", env.SourceID, "error", err)
			return
		}
		report := payload.(*message.ErrorMessage)

		ci.mu.Lock()
		cb := ci.errorCb
		ci.mu.Unlock()
		if cb != nil {
			cb(msgCtx, env.SourceID, report)
		}
	})
}

// dispatchMotion forwards typed motion commands and task assignments to
// their callbacks. CommandData envelopes on the same topic belong to the
// communicator and are ignored here.
func (ci *Interface) dispatchMotion(ctx context.Context, env *message.Envelope) {
	if env.TargetID != "" && env.TargetID != ci.id {
		return
	}

	switch env.PayloadType {
	case message.MotionCommandType.Key(), message.TaskAssignmentType.Key():
	default:
		return
	}

	payload, err := env.DecodePayload(ci.bridge.Registry())
	if err != nil {
		ci.logger.Warn("command payload did not decode",
			"envelope_id", env.ID, "source", env.SourceID, "error", err)
		return
	}

	switch p := payload.(type) {
	case *message.MotionCommand:
		ci.mu.Lock()
		cb := ci.motionCb
		ci.mu.Unlock()
		if cb != nil {
			cb(ctx, env.SourceID, p)
		}
	case *message.TaskAssignment:
		ci.mu.Lock()
		cb := ci.taskCb
		ci.mu.Unlock()
		if cb != nil {
			cb(ctx, env.SourceID, p)
		}
	}
}
