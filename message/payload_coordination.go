package message

import (
	"encoding/json"
	"fmt"
)

// Payload type identifiers for coordination payloads
var (
	CoordinationMessageType = Type{Domain: "robotics", Category: "coordination_message", Version: "v1"}
	TaskAssignmentType      = Type{Domain: "robotics", Category: "task_assignment", Version: "v1"}
	InterfaceSettingsType   = Type{Domain: "robotics", Category: "interface_settings", Version: "v1"}
)

// CoordinationMessage coordinates an action across components. When
// ResponseRequired is set the sender must use the request-response pattern
// so the reply can be correlated.
type CoordinationMessage struct {
	CoordinationType CoordinationType `json:"coordination_type"`
	SourceComponent  string           `json:"source_component"`
	TargetComponents []string         `json:"target_components"`
	Action           string           `json:"action"`
	Parameters       map[string]any   `json:"parameters"`
	Priority         Priority         `json:"priority"`
	ResponseRequired bool             `json:"response_required"`
	GroupID          string           `json:"group_id,omitempty"`
}

// Schema implements Payload
func (p *CoordinationMessage) Schema() Type { return CoordinationMessageType }

// Validate implements Payload
func (p *CoordinationMessage) Validate() error {
	if err := checkRequired("coordination_type", string(p.CoordinationType)); err != nil {
		return err
	}
	return checkRequired("source_component", p.SourceComponent)
}

// MarshalJSON implements json.Marshaler
func (p *CoordinationMessage) MarshalJSON() ([]byte, error) {
	type alias CoordinationMessage
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *CoordinationMessage) UnmarshalJSON(data []byte) error {
	type alias CoordinationMessage
	tmp := alias{Priority: PriorityNormal}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = CoordinationMessage(tmp)
	return nil
}

// TaskAssignment assigns a task to one or more components.
type TaskAssignment struct {
	TaskID             string         `json:"task_id"`
	TaskType           string         `json:"task_type"`
	AssignedComponents []string       `json:"assigned_components"`
	Priority           int            `json:"priority"`
	Deadline           *float64       `json:"deadline,omitempty"`
	Parameters         map[string]any `json:"parameters"`
	Dependencies       []string       `json:"dependencies"`
	Status             string         `json:"status"`
}

// Schema implements Payload
func (p *TaskAssignment) Schema() Type { return TaskAssignmentType }

// Validate implements Payload
func (p *TaskAssignment) Validate() error {
	if err := checkRequired("task_id", p.TaskID); err != nil {
		return err
	}
	if err := checkRequired("task_type", p.TaskType); err != nil {
		return err
	}
	switch p.Status {
	case TaskStatusAssigned, TaskStatusInProgress, TaskStatusDone, TaskStatusFailed:
		return nil
	default:
		return fmt.Errorf("task status %q is not one of assigned, in_progress, done, failed", p.Status)
	}
}

// MarshalJSON implements json.Marshaler
func (p *TaskAssignment) MarshalJSON() ([]byte, error) {
	type alias TaskAssignment
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *TaskAssignment) UnmarshalJSON(data []byte) error {
	type alias TaskAssignment
	tmp := alias{
		Priority: 1,
		Status:   TaskStatusAssigned,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = TaskAssignment(tmp)
	return nil
}

// InterfaceSettings configures the link between two connected components.
type InterfaceSettings struct {
	InterfaceID          string          `json:"interface_id"`
	InterfaceType        string          `json:"interface_type"`
	ConnectedComponents  []string        `json:"connected_components"`
	ConnectionStrength   float64         `json:"connection_strength"`
	CommunicationEnabled bool            `json:"communication_enabled"`
	PowerTransferEnabled bool            `json:"power_transfer_enabled"`
	DataTransferRate     float64         `json:"data_transfer_rate"`
	Flags                map[string]bool `json:"flags"`
}

// Schema implements Payload
func (p *InterfaceSettings) Schema() Type { return InterfaceSettingsType }

// Validate implements Payload
func (p *InterfaceSettings) Validate() error {
	if err := checkRequired("interface_id", p.InterfaceID); err != nil {
		return err
	}
	return checkNonNegative("connection_strength", p.ConnectionStrength)
}

// MarshalJSON implements json.Marshaler
func (p *InterfaceSettings) MarshalJSON() ([]byte, error) {
	type alias InterfaceSettings
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *InterfaceSettings) UnmarshalJSON(data []byte) error {
	type alias InterfaceSettings
	tmp := alias{
		ConnectionStrength:   1.0,
		CommunicationEnabled: true,
		DataTransferRate:     1.0,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = InterfaceSettings(tmp)
	return nil
}
