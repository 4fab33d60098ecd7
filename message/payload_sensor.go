package message

import "encoding/json"

// SensorDataType identifies SensorData payloads
var SensorDataType = Type{Domain: "robotics", Category: "sensor_data", Version: "v1"}

// SensorData carries one reading (or reading set) from a sensor.
// Values holds named channels, Units maps channel name to unit string.
type SensorData struct {
	SensorID   string            `json:"sensor_id"`
	SensorType SensorType        `json:"sensor_type"`
	Values     map[string]any    `json:"values"`
	Timestamp  float64           `json:"timestamp"`
	Confidence float64           `json:"confidence"`
	Units      map[string]string `json:"units"`
}

// Schema implements Payload
func (p *SensorData) Schema() Type { return SensorDataType }

// Validate implements Payload
func (p *SensorData) Validate() error {
	if err := checkRequired("sensor_id", p.SensorID); err != nil {
		return err
	}
	if err := checkRequired("sensor_type", string(p.SensorType)); err != nil {
		return err
	}
	return checkRange("confidence", p.Confidence, 0, 1)
}

// MarshalJSON implements json.Marshaler
func (p *SensorData) MarshalJSON() ([]byte, error) {
	type alias SensorData
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler. A missing confidence field
// defaults to 1.0 (fully trusted).
func (p *SensorData) UnmarshalJSON(data []byte) error {
	type alias SensorData
	tmp := alias{Confidence: 1.0}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = SensorData(tmp)
	return nil
}
