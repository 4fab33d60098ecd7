package message

import "encoding/json"

// Payload represents the typed data carried by an envelope.
// All payloads must provide schema information, validation, and JSON
// serialization. Encode followed by decode must reproduce an equal value,
// and decoding must ignore unknown fields for forward compatibility.
//
// Example implementation:
//
//	type PowerState struct {
//	    ComponentID  string  `json:"component_id"`
//	    BatteryLevel float64 `json:"battery_level"`
//	}
//
//	func (p *PowerState) Schema() Type {
//	    return Type{Domain: "robotics", Category: "power_state", Version: "v1"}
//	}
//
//	func (p *PowerState) Validate() error {
//	    if p.BatteryLevel < 0 || p.BatteryLevel > 100 {
//	        return errors.New("battery level out of range")
//	    }
//	    return nil
//	}
type Payload interface {
	// Schema returns the Type that identifies this payload's structure.
	Schema() Type

	// Validate checks the payload data for correctness.
	// Returns nil if valid, or an error describing the validation failure.
	Validate() error

	// JSON serialization using standard Go interfaces. The same payload
	// must always produce the same JSON output.
	json.Marshaler
	json.Unmarshaler
}
