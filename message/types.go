package message

import (
	"fmt"
	"strings"

	"github.com/c360/componentbus/errors"
)

// Type provides structured type information for payloads.
// It enables type-safe routing and decoding by clearly identifying
// the domain, category, and version of each payload.
//
// Example definition:
//
//	var MotionCommandType = message.Type{
//	    Domain:   "robotics",
//	    Category: "motion_command",
//	    Version:  "v1",
//	}
type Type struct {
	// Domain identifies the business or system domain.
	// Examples: "robotics", "bus"
	Domain string

	// Category identifies the specific payload type within the domain.
	// Examples: "component_state", "motion_command"
	Category string

	// Version identifies the schema version.
	// Format: "v1", "v2", etc. Enables schema evolution.
	Version string
}

// Key returns the dotted notation representation: "domain.category.version".
// This is the lookup key used by the payload registry and the value carried
// in Envelope.PayloadType.
func (t Type) Key() string {
	return fmt.Sprintf("%s.%s.%s", t.Domain, t.Category, t.Version)
}

// String returns the same as Key()
func (t Type) String() string {
	return t.Key()
}

// IsValid checks if the Type has all required fields populated
func (t Type) IsValid() bool {
	return t.Domain != "" && t.Category != "" && t.Version != ""
}

// ParseType parses a dotted type key back into a Type.
func ParseType(key string) (Type, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Type{}, errors.WrapInvalid(
			fmt.Errorf("expected domain.category.version, got %q", key),
			"message", "ParseType", "key validation",
		)
	}
	return Type{Domain: parts[0], Category: parts[1], Version: parts[2]}, nil
}

// CommunicationType identifies the channel class a message travels on.
// Each (component, communication type) pair maps to one bus topic.
type CommunicationType string

// Communication types for component topics
const (
	CommTypeCommand       CommunicationType = "command"       // Control commands
	CommTypeTelemetry     CommunicationType = "telemetry"     // Status and sensor data
	CommTypeState         CommunicationType = "state"         // Component state snapshots
	CommTypeCoordination  CommunicationType = "coordination"  // Inter-component coordination
	CommTypeSimulation    CommunicationType = "simulation"    // Simulation control
	CommTypeVisualization CommunicationType = "visualization" // Visualization data
	CommTypeError         CommunicationType = "error"         // Error reports
)

// AllCommunicationTypes lists every communication type, in the order
// communicators create their publishers.
func AllCommunicationTypes() []CommunicationType {
	return []CommunicationType{
		CommTypeCommand,
		CommTypeTelemetry,
		CommTypeState,
		CommTypeCoordination,
		CommTypeSimulation,
		CommTypeVisualization,
		CommTypeError,
	}
}

// IsValid reports whether ct is a known communication type
func (ct CommunicationType) IsValid() bool {
	switch ct {
	case CommTypeCommand, CommTypeTelemetry, CommTypeState, CommTypeCoordination,
		CommTypeSimulation, CommTypeVisualization, CommTypeError:
		return true
	default:
		return false
	}
}

// String returns the wire representation
func (ct CommunicationType) String() string {
	return string(ct)
}

// Priority represents message delivery priority, ordered low to critical.
type Priority int

// Priority levels
const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns the string representation of the priority
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// IsValid reports whether p is a defined priority level
func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// ComponentType identifies the kind of simulated sub-assembly a component is.
type ComponentType string

// Component types
const (
	ComponentSphere        ComponentType = "sphere"
	ComponentActuator      ComponentType = "actuator"
	ComponentSensor        ComponentType = "sensor"
	ComponentController    ComponentType = "controller"
	ComponentJoint         ComponentType = "joint"
	ComponentInterface     ComponentType = "interface"
	ComponentPower         ComponentType = "power"
	ComponentCommunication ComponentType = "communication"
)

// IsValid reports whether ct is a known component type
func (ct ComponentType) IsValid() bool {
	switch ct {
	case ComponentSphere, ComponentActuator, ComponentSensor, ComponentController,
		ComponentJoint, ComponentInterface, ComponentPower, ComponentCommunication:
		return true
	}
	return false
}

// MotionType identifies how a component moves
type MotionType string

// Motion types
const (
	MotionLinear      MotionType = "linear"
	MotionRotational  MotionType = "rotational"
	MotionCombined    MotionType = "combined"
	MotionArticulated MotionType = "articulated"
	MotionDeformable  MotionType = "deformable"
)

// SensorType identifies the physical quantity a sensor measures
type SensorType string

// Sensor types
const (
	SensorPosition     SensorType = "position"
	SensorVelocity     SensorType = "velocity"
	SensorAcceleration SensorType = "acceleration"
	SensorForce        SensorType = "force"
	SensorTorque       SensorType = "torque"
	SensorPressure     SensorType = "pressure"
	SensorTemperature  SensorType = "temperature"
	SensorProximity    SensorType = "proximity"
	SensorTouch        SensorType = "touch"
	SensorVisual       SensorType = "visual"
	SensorAudio        SensorType = "audio"
)

// ActuatorType identifies the actuation mechanism
type ActuatorType string

// Actuator types
const (
	ActuatorMotor           ActuatorType = "motor"
	ActuatorServo           ActuatorType = "servo"
	ActuatorPneumatic       ActuatorType = "pneumatic"
	ActuatorHydraulic       ActuatorType = "hydraulic"
	ActuatorPiezoelectric   ActuatorType = "piezoelectric"
	ActuatorElectromagnetic ActuatorType = "electromagnetic"
	ActuatorShapeMemory     ActuatorType = "shape_memory"
)

// CoordinationType identifies the coordination protocol in use
type CoordinationType string

// Coordination types
const (
	CoordMotionSync         CoordinationType = "motion_sync"
	CoordStateSync          CoordinationType = "state_sync"
	CoordTaskDistribution   CoordinationType = "task_distribution"
	CoordResourceAllocation CoordinationType = "resource_allocation"
	CoordFormation          CoordinationType = "formation"
	CoordSwarm              CoordinationType = "swarm"
)

// Task statuses carried by TaskAssignment.Status
const (
	TaskStatusAssigned   = "assigned"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
	TaskStatusFailed     = "failed"
)
