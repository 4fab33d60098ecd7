package message

import (
	"encoding/json"
	"fmt"
)

// Payload type identifiers for motion and actuation payloads
var (
	MotionCommandType      = Type{Domain: "robotics", Category: "motion_command", Version: "v1"}
	ActuatorCommandType    = Type{Domain: "robotics", Category: "actuator_command", Version: "v1"}
	JointConfigurationType = Type{Domain: "robotics", Category: "joint_configuration", Version: "v1"}
)

// MotionCommand requests a change to a component's motion. Target fields are
// optional; a nil slice means "leave unchanged". A command with every target
// unset is accepted, the receiving component decides what that means.
type MotionCommand struct {
	TargetPosition        []float64  `json:"target_position,omitempty"`
	TargetOrientation     []float64  `json:"target_orientation,omitempty"`
	TargetVelocity        []float64  `json:"target_velocity,omitempty"`
	TargetAngularVelocity []float64  `json:"target_angular_velocity,omitempty"`
	MotionType            MotionType `json:"motion_type"`
	Duration              float64    `json:"duration"`
	Relative              bool       `json:"relative"`
	Priority              Priority   `json:"priority"`
}

// Schema implements Payload
func (p *MotionCommand) Schema() Type { return MotionCommandType }

// Validate implements Payload
func (p *MotionCommand) Validate() error {
	if err := checkVec3("target_position", p.TargetPosition); err != nil {
		return err
	}
	if err := checkQuat("target_orientation", p.TargetOrientation); err != nil {
		return err
	}
	if err := checkVec3("target_velocity", p.TargetVelocity); err != nil {
		return err
	}
	if err := checkVec3("target_angular_velocity", p.TargetAngularVelocity); err != nil {
		return err
	}
	if err := checkNonNegative("duration", p.Duration); err != nil {
		return err
	}
	if !p.Priority.IsValid() {
		return fmt.Errorf("priority %d is not a valid level", p.Priority)
	}
	return nil
}

// HasTarget reports whether any target field is set
func (p *MotionCommand) HasTarget() bool {
	return p.TargetPosition != nil || p.TargetOrientation != nil ||
		p.TargetVelocity != nil || p.TargetAngularVelocity != nil
}

// MarshalJSON implements json.Marshaler
func (p *MotionCommand) MarshalJSON() ([]byte, error) {
	type alias MotionCommand
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *MotionCommand) UnmarshalJSON(data []byte) error {
	type alias MotionCommand
	tmp := alias{
		MotionType: MotionLinear,
		Priority:   PriorityNormal,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = MotionCommand(tmp)
	return nil
}

// ActuatorCommand drives a single actuator.
type ActuatorCommand struct {
	ActuatorID   string         `json:"actuator_id"`
	ActuatorType ActuatorType   `json:"actuator_type"`
	Action       string         `json:"action"`
	Parameters   map[string]any `json:"parameters"`
	Duration     float64        `json:"duration"`
	Priority     Priority       `json:"priority"`
}

// Schema implements Payload
func (p *ActuatorCommand) Schema() Type { return ActuatorCommandType }

// Validate implements Payload
func (p *ActuatorCommand) Validate() error {
	if err := checkRequired("actuator_id", p.ActuatorID); err != nil {
		return err
	}
	if err := checkRequired("actuator_type", string(p.ActuatorType)); err != nil {
		return err
	}
	return checkNonNegative("duration", p.Duration)
}

// MarshalJSON implements json.Marshaler
func (p *ActuatorCommand) MarshalJSON() ([]byte, error) {
	type alias ActuatorCommand
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *ActuatorCommand) UnmarshalJSON(data []byte) error {
	type alias ActuatorCommand
	tmp := alias{
		Action:   "move",
		Priority: PriorityNormal,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = ActuatorCommand(tmp)
	return nil
}

// JointConfiguration describes a joint binding two or more components.
type JointConfiguration struct {
	JointID             string         `json:"joint_id"`
	JointType           string         `json:"joint_type"`
	ConnectedComponents []string       `json:"connected_components"`
	Position            []float64      `json:"position"`
	Orientation         []float64      `json:"orientation"`
	Limits              map[string]any `json:"limits"`
	Stiffness           float64        `json:"stiffness"`
	Damping             float64        `json:"damping"`
}

// Schema implements Payload
func (p *JointConfiguration) Schema() Type { return JointConfigurationType }

// Validate implements Payload
func (p *JointConfiguration) Validate() error {
	if err := checkRequired("joint_id", p.JointID); err != nil {
		return err
	}
	if err := checkRequired("joint_type", p.JointType); err != nil {
		return err
	}
	if len(p.ConnectedComponents) < 2 {
		return fmt.Errorf("joint %s must connect at least 2 components, got %d",
			p.JointID, len(p.ConnectedComponents))
	}
	if err := checkVec3("position", p.Position); err != nil {
		return err
	}
	return checkQuat("orientation", p.Orientation)
}

// MarshalJSON implements json.Marshaler
func (p *JointConfiguration) MarshalJSON() ([]byte, error) {
	type alias JointConfiguration
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *JointConfiguration) UnmarshalJSON(data []byte) error {
	type alias JointConfiguration
	tmp := alias{
		Position:    zeroVec3(),
		Orientation: identityQuat(),
		Stiffness:   1.0,
		Damping:     0.1,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = JointConfiguration(tmp)
	return nil
}
