package message

import "encoding/json"

// Payload type identifiers for bus-level payloads. These carry the routed
// command, telemetry, and coordination bodies; the robotics payloads ride
// inside their Values/Params maps or travel as envelopes of their own.
var (
	CommandDataType      = Type{Domain: "bus", Category: "command", Version: "v1"}
	TelemetryDataType    = Type{Domain: "bus", Category: "telemetry", Version: "v1"}
	CoordinationDataType = Type{Domain: "bus", Category: "coordination", Version: "v1"}
)

// CommandData is the body of a command envelope: a named command with
// free-form parameters, dispatched by name on the receiving communicator.
type CommandData struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params"`
}

// Schema implements Payload
func (p *CommandData) Schema() Type { return CommandDataType }

// Validate implements Payload
func (p *CommandData) Validate() error {
	return checkRequired("command", p.Command)
}

// MarshalJSON implements json.Marshaler
func (p *CommandData) MarshalJSON() ([]byte, error) {
	type alias CommandData
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *CommandData) UnmarshalJSON(data []byte) error {
	type alias CommandData
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = CommandData(tmp)
	return nil
}

// TelemetryData is the body of a telemetry envelope: a named telemetry
// stream with its current values.
type TelemetryData struct {
	TelemetryType string         `json:"telemetry_type"`
	Values        map[string]any `json:"values"`
}

// Schema implements Payload
func (p *TelemetryData) Schema() Type { return TelemetryDataType }

// Validate implements Payload
func (p *TelemetryData) Validate() error {
	return checkRequired("telemetry_type", p.TelemetryType)
}

// MarshalJSON implements json.Marshaler
func (p *TelemetryData) MarshalJSON() ([]byte, error) {
	type alias TelemetryData
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *TelemetryData) UnmarshalJSON(data []byte) error {
	type alias TelemetryData
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = TelemetryData(tmp)
	return nil
}

// CoordinationData is the body of a coordination envelope. The
// request-response pattern rides on it: requests carry the action name and
// data, responses carry action "response" and the outcome.
type CoordinationData struct {
	CoordinationType string         `json:"coordination_type"`
	Action           string         `json:"action"`
	Params           map[string]any `json:"params"`
	ResponseRequired bool           `json:"response_required"`
	GroupID          string         `json:"group_id,omitempty"`
}

// Schema implements Payload
func (p *CoordinationData) Schema() Type { return CoordinationDataType }

// Validate implements Payload
func (p *CoordinationData) Validate() error {
	if err := checkRequired("coordination_type", p.CoordinationType); err != nil {
		return err
	}
	return checkRequired("action", p.Action)
}

// MarshalJSON implements json.Marshaler
func (p *CoordinationData) MarshalJSON() ([]byte, error) {
	type alias CoordinationData
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *CoordinationData) UnmarshalJSON(data []byte) error {
	type alias CoordinationData
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = CoordinationData(tmp)
	return nil
}

// NewCommandMessage builds a command envelope. Pure builder, no side effects.
func NewCommandMessage(sourceID, targetID, command string, params map[string]any, opts ...EnvelopeOption) (*Envelope, error) {
	return NewEnvelope(CommTypeCommand, sourceID, targetID, &CommandData{
		Command: command,
		Params:  params,
	}, opts...)
}

// NewTelemetryMessage builds a telemetry envelope. An empty targetID
// broadcasts to every subscriber of the sender's telemetry topic.
func NewTelemetryMessage(sourceID, targetID, telemetryType string, values map[string]any, opts ...EnvelopeOption) (*Envelope, error) {
	return NewEnvelope(CommTypeTelemetry, sourceID, targetID, &TelemetryData{
		TelemetryType: telemetryType,
		Values:        values,
	}, opts...)
}

// NewCoordinationMessage builds a coordination envelope.
func NewCoordinationMessage(
	sourceID, targetID, coordinationType, action string,
	params map[string]any,
	opts ...EnvelopeOption,
) (*Envelope, error) {
	return NewEnvelope(CommTypeCoordination, sourceID, targetID, &CoordinationData{
		CoordinationType: coordinationType,
		Action:           action,
		Params:           params,
	}, opts...)
}
