package message

import (
	"fmt"
	"sync"

	"github.com/c360/componentbus/errors"
)

// PayloadFactory creates an empty payload instance for a registered type,
// ready for UnmarshalJSON to fill.
type PayloadFactory func() Payload

// Registration holds the factory and metadata for one payload type.
type Registration struct {
	Factory     PayloadFactory `json:"-"`
	Domain      string         `json:"domain"`
	Category    string         `json:"category"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
}

// MessageType returns the dotted type key for this registration.
// Format: "domain.category.version" (e.g., "robotics.motion_command.v1").
func (r *Registration) MessageType() string {
	return Type{Domain: r.Domain, Category: r.Category, Version: r.Version}.Key()
}

// Registry manages payload factories for envelope decoding. It provides
// thread-safe registration and lookup, enabling Envelope.DecodePayload to
// recreate typed payloads from JSON.
type Registry struct {
	registrations map[string]*Registration
	mu            sync.RWMutex
}

// NewRegistry creates a new empty payload registry
func NewRegistry() *Registry {
	return &Registry{
		registrations: make(map[string]*Registration),
	}
}

// Register adds a payload factory with validation. The type key is derived
// from the registration's Domain, Category, and Version fields. Returns an
// error if validation fails or the type is already registered.
func (r *Registry) Register(registration *Registration) error {
	if registration == nil || registration.Factory == nil {
		return errors.WrapInvalid(
			errors.ErrInvalidConfig, "Registry", "Register", "factory validation",
		)
	}
	if registration.Domain == "" || registration.Category == "" || registration.Version == "" {
		return errors.WrapInvalid(
			errors.ErrInvalidConfig, "Registry", "Register", "type key validation",
		)
	}

	key := registration.MessageType()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registrations[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("payload type %q already registered", key),
			"Registry", "Register", "duplicate check",
		)
	}

	r.registrations[key] = registration
	return nil
}

// RegisterPayload is a convenience wrapper that derives the registration
// from the payload's own schema.
func (r *Registry) RegisterPayload(factory PayloadFactory, description string) error {
	if factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterPayload", "factory validation")
	}
	schema := factory().Schema()
	return r.Register(&Registration{
		Factory:     factory,
		Domain:      schema.Domain,
		Category:    schema.Category,
		Version:     schema.Version,
		Description: description,
	})
}

// Decode creates a typed payload from its dotted type key and JSON bytes.
// Unknown JSON fields are ignored for forward compatibility. Decoding
// malformed input fails with a malformed-payload error identifying the
// offending type.
func (r *Registry) Decode(key string, data []byte) (Payload, error) {
	r.mu.RLock()
	registration, ok := r.registrations[key]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("payload type %q not registered", key),
			"Registry", "Decode", "type lookup",
		)
	}

	payload := registration.Factory()
	if err := payload.UnmarshalJSON(data); err != nil {
		return nil, errors.Malformed(key, err)
	}
	return payload, nil
}

// Lookup returns the registration for a type key, if present
func (r *Registry) Lookup(key string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	registration, ok := r.registrations[key]
	return registration, ok
}

// Types returns the registered type keys (unordered)
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.registrations))
	for key := range r.registrations {
		keys = append(keys, key)
	}
	return keys
}

// DefaultRegistry returns a registry pre-populated with every payload type
// the bus ships: the twelve robotics payloads plus the bus-level command,
// telemetry, and coordination bodies.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	register := func(factory PayloadFactory, description string) {
		// Registrations here are static and validated by construction.
		if err := r.RegisterPayload(factory, description); err != nil {
			panic(err)
		}
	}

	register(func() Payload { return &ComponentState{} }, "Component state snapshot")
	register(func() Payload { return &MotionCommand{} }, "Motion change request")
	register(func() Payload { return &SensorData{} }, "Sensor reading")
	register(func() Payload { return &ActuatorCommand{} }, "Actuator drive command")
	register(func() Payload { return &JointConfiguration{} }, "Joint between components")
	register(func() Payload { return &InterfaceSettings{} }, "Component link settings")
	register(func() Payload { return &TaskAssignment{} }, "Task assignment")
	register(func() Payload { return &CoordinationMessage{} }, "Coordination action")
	register(func() Payload { return &SimulationControl{} }, "Simulation control command")
	register(func() Payload { return &PhysicalProperties{} }, "Rigid body parameters")
	register(func() Payload { return &PowerState{} }, "Battery and power activity")
	register(func() Payload { return &ErrorMessage{} }, "Component fault report")

	register(func() Payload { return &CommandData{} }, "Routed command body")
	register(func() Payload { return &TelemetryData{} }, "Routed telemetry body")
	register(func() Payload { return &CoordinationData{} }, "Routed coordination body")

	return r
}
