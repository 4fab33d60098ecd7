package message

import (
	"encoding/json"
	"fmt"
)

// Payload type identifiers for control payloads
var (
	SimulationControlType = Type{Domain: "robotics", Category: "simulation_control", Version: "v1"}
	ErrorMessageType      = Type{Domain: "robotics", Category: "error_message", Version: "v1"}
)

// SimulationControl starts, stops, or reconfigures the running simulation.
type SimulationControl struct {
	Command            string         `json:"command"`
	Parameters         map[string]any `json:"parameters"`
	AffectedComponents []string       `json:"affected_components"`
	TimeScale          float64        `json:"time_scale"`
	PhysicsParameters  map[string]any `json:"physics_parameters"`
	RandomSeed         *int64         `json:"random_seed,omitempty"`
}

// Schema implements Payload
func (p *SimulationControl) Schema() Type { return SimulationControlType }

// Validate implements Payload
func (p *SimulationControl) Validate() error {
	if err := checkRequired("command", p.Command); err != nil {
		return err
	}
	if p.TimeScale <= 0 {
		return fmt.Errorf("time_scale must be > 0, got %g", p.TimeScale)
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (p *SimulationControl) MarshalJSON() ([]byte, error) {
	type alias SimulationControl
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *SimulationControl) UnmarshalJSON(data []byte) error {
	type alias SimulationControl
	tmp := alias{
		Command:   "start",
		TimeScale: 1.0,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = SimulationControl(tmp)
	return nil
}

// ErrorMessage reports a component fault to its peers.
type ErrorMessage struct {
	ComponentID      string   `json:"component_id"`
	ErrorCode        int      `json:"error_code"`
	ErrorType        string   `json:"error_type"`
	ErrorMessage     string   `json:"error_message"`
	Severity         string   `json:"severity"`
	Recoverable      bool     `json:"recoverable"`
	SuggestedActions []string `json:"suggested_actions"`
	Timestamp        float64  `json:"timestamp"`
}

// Schema implements Payload
func (p *ErrorMessage) Schema() Type { return ErrorMessageType }

// Validate implements Payload
func (p *ErrorMessage) Validate() error {
	if err := checkRequired("component_id", p.ComponentID); err != nil {
		return err
	}
	return checkRequired("error_type", p.ErrorType)
}

// MarshalJSON implements json.Marshaler
func (p *ErrorMessage) MarshalJSON() ([]byte, error) {
	type alias ErrorMessage
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *ErrorMessage) UnmarshalJSON(data []byte) error {
	type alias ErrorMessage
	tmp := alias{
		ErrorType:   "unknown",
		Severity:    "info",
		Recoverable: true,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = ErrorMessage(tmp)
	return nil
}
