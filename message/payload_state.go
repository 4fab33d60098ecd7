package message

import (
	"encoding/json"
	"fmt"
)

// Payload type identifiers for state-carrying payloads
var (
	ComponentStateType     = Type{Domain: "robotics", Category: "component_state", Version: "v1"}
	PowerStateType         = Type{Domain: "robotics", Category: "power_state", Version: "v1"}
	PhysicalPropertiesType = Type{Domain: "robotics", Category: "physical_properties", Version: "v1"}
)

// ComponentState is the published state snapshot of a component.
// Orientation is a unit quaternion (xyzw) by convention; consumers assume
// it but the bus does not normalize it.
type ComponentState struct {
	ComponentID         string        `json:"component_id"`
	ComponentType       ComponentType `json:"component_type"`
	Position            []float64     `json:"position"`
	Orientation         []float64     `json:"orientation"`
	Velocity            []float64     `json:"velocity"`
	AngularVelocity     []float64     `json:"angular_velocity"`
	Status              string        `json:"status"`
	BatteryLevel        float64       `json:"battery_level"`
	Temperature         float64       `json:"temperature"`
	ConnectedComponents []string      `json:"connected_components"`
	Active              bool          `json:"active"`
	Timestamp           float64       `json:"timestamp"`
}

// NewComponentState creates a state snapshot with the documented defaults:
// origin pose, idle status, full battery, active.
func NewComponentState(componentID string, componentType ComponentType) *ComponentState {
	return &ComponentState{
		ComponentID:         componentID,
		ComponentType:       componentType,
		Position:            zeroVec3(),
		Orientation:         identityQuat(),
		Velocity:            zeroVec3(),
		AngularVelocity:     zeroVec3(),
		Status:              "idle",
		BatteryLevel:        100,
		Temperature:         25,
		ConnectedComponents: []string{},
		Active:              true,
	}
}

// Schema implements Payload
func (p *ComponentState) Schema() Type { return ComponentStateType }

// Validate implements Payload
func (p *ComponentState) Validate() error {
	if err := checkRequired("component_id", p.ComponentID); err != nil {
		return err
	}
	if err := checkVec3("position", p.Position); err != nil {
		return err
	}
	if err := checkQuat("orientation", p.Orientation); err != nil {
		return err
	}
	if err := checkVec3("velocity", p.Velocity); err != nil {
		return err
	}
	if err := checkVec3("angular_velocity", p.AngularVelocity); err != nil {
		return err
	}
	return checkRange("battery_level", p.BatteryLevel, 0, 100)
}

// MarshalJSON implements json.Marshaler
func (p *ComponentState) MarshalJSON() ([]byte, error) {
	type alias ComponentState
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler. Missing fields take the
// documented defaults; unknown fields are ignored.
func (p *ComponentState) UnmarshalJSON(data []byte) error {
	type alias ComponentState
	tmp := alias{
		Position:        zeroVec3(),
		Orientation:     identityQuat(),
		Velocity:        zeroVec3(),
		AngularVelocity: zeroVec3(),
		Status:          "idle",
		BatteryLevel:    100,
		Temperature:     25,
		Active:          true,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = ComponentState(tmp)
	return nil
}

// Clone returns a deep copy. The bus treats published payloads as immutable,
// so components that keep mutating their own state snapshot publish clones.
func (p *ComponentState) Clone() *ComponentState {
	c := *p
	c.Position = append([]float64(nil), p.Position...)
	c.Orientation = append([]float64(nil), p.Orientation...)
	c.Velocity = append([]float64(nil), p.Velocity...)
	c.AngularVelocity = append([]float64(nil), p.AngularVelocity...)
	c.ConnectedComponents = append([]string(nil), p.ConnectedComponents...)
	return &c
}

// PowerState reports a component's battery and power activity.
type PowerState struct {
	ComponentID      string  `json:"component_id"`
	BatteryLevel     float64 `json:"battery_level"`
	PowerConsumption float64 `json:"power_consumption"`
	PowerGeneration  float64 `json:"power_generation"`
	Charging         bool    `json:"charging"`
	AvailablePower   float64 `json:"available_power"`
	PowerMode        string  `json:"power_mode"`
}

// Schema implements Payload
func (p *PowerState) Schema() Type { return PowerStateType }

// Validate implements Payload
func (p *PowerState) Validate() error {
	if err := checkRequired("component_id", p.ComponentID); err != nil {
		return err
	}
	if err := checkRange("battery_level", p.BatteryLevel, 0, 100); err != nil {
		return err
	}
	return checkNonNegative("power_consumption", p.PowerConsumption)
}

// MarshalJSON implements json.Marshaler
func (p *PowerState) MarshalJSON() ([]byte, error) {
	type alias PowerState
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *PowerState) UnmarshalJSON(data []byte) error {
	type alias PowerState
	tmp := alias{
		BatteryLevel:   100,
		AvailablePower: 100,
		PowerMode:      "normal",
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = PowerState(tmp)
	return nil
}

// PhysicalProperties describes a component's rigid-body parameters.
// The inertia tensor is row-major 3x3 about the center of mass.
type PhysicalProperties struct {
	ComponentID    string    `json:"component_id"`
	Mass           float64   `json:"mass"`
	InertiaTensor  []float64 `json:"inertia_tensor"`
	CenterOfMass   []float64 `json:"center_of_mass"`
	Material       string    `json:"material"`
	Friction       float64   `json:"friction"`
	Restitution    float64   `json:"restitution"`
	Dimensions     []float64 `json:"dimensions"`
	CollisionShape string    `json:"collision_shape"`
}

// Schema implements Payload
func (p *PhysicalProperties) Schema() Type { return PhysicalPropertiesType }

// Validate implements Payload
func (p *PhysicalProperties) Validate() error {
	if err := checkRequired("component_id", p.ComponentID); err != nil {
		return err
	}
	if p.Mass <= 0 {
		return fmt.Errorf("mass must be > 0, got %g", p.Mass)
	}
	if err := checkTensor("inertia_tensor", p.InertiaTensor); err != nil {
		return err
	}
	if err := checkVec3("center_of_mass", p.CenterOfMass); err != nil {
		return err
	}
	return checkVec3("dimensions", p.Dimensions)
}

// MarshalJSON implements json.Marshaler
func (p *PhysicalProperties) MarshalJSON() ([]byte, error) {
	type alias PhysicalProperties
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *PhysicalProperties) UnmarshalJSON(data []byte) error {
	type alias PhysicalProperties
	tmp := alias{
		Mass:           1,
		InertiaTensor:  identityTensor(),
		CenterOfMass:   zeroVec3(),
		Material:       "default",
		Friction:       0.5,
		Restitution:    0.5,
		Dimensions:     []float64{1, 1, 1},
		CollisionShape: "box",
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = PhysicalProperties(tmp)
	return nil
}
