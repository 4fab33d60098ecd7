package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c360/componentbus/errors"
)

// Envelope is the transport wrapper the bridge moves between components.
// It carries exactly one typed payload, serialized, together with routing
// metadata. Envelopes are immutable once published; the bridge never
// retains them after dispatch.
//
// CorrelationID is set only when the envelope is part of a request-response
// exchange: the response carries the same id as its request.
type Envelope struct {
	ID            string            `json:"id"`
	Type          CommunicationType `json:"type"`
	SourceID      string            `json:"source_id"`
	TargetID      string            `json:"target_id,omitempty"`
	Priority      Priority          `json:"priority"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	PayloadType   string            `json:"payload_type"`
	Payload       json.RawMessage   `json:"payload"`
}

// EnvelopeOption is a functional option for configuring envelope construction
type EnvelopeOption func(*Envelope)

// WithPriority sets the delivery priority (default PriorityNormal)
func WithPriority(p Priority) EnvelopeOption {
	return func(e *Envelope) {
		e.Priority = p
	}
}

// WithCorrelationID marks the envelope as part of a request-response
// exchange identified by id.
func WithCorrelationID(id string) EnvelopeOption {
	return func(e *Envelope) {
		e.CorrelationID = id
	}
}

// WithTimestamp sets a specific creation timestamp instead of time.Now().
// Useful for tests and replayed traffic.
func WithTimestamp(ts time.Time) EnvelopeOption {
	return func(e *Envelope) {
		e.Timestamp = ts.UTC()
	}
}

// NewEnvelope wraps a payload for transport. The payload is validated and
// serialized immediately so the caller may mutate its copy afterwards
// without affecting the envelope. An empty targetID means broadcast.
func NewEnvelope(
	commType CommunicationType,
	sourceID, targetID string,
	payload Payload,
	opts ...EnvelopeOption,
) (*Envelope, error) {
	if !commType.IsValid() {
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown communication type %q", commType),
			"message", "NewEnvelope", "communication type validation",
		)
	}
	if sourceID == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("source id is required"),
			"message", "NewEnvelope", "source validation",
		)
	}
	if payload == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("payload is required"),
			"message", "NewEnvelope", "payload validation",
		)
	}
	if err := payload.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "message", "NewEnvelope", "payload validation")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapInvalid(err, "message", "NewEnvelope", "payload serialization")
	}

	e := &Envelope{
		ID:          uuid.New().String(),
		Type:        commType,
		SourceID:    sourceID,
		TargetID:    targetID,
		Priority:    PriorityNormal,
		Timestamp:   time.Now().UTC(),
		PayloadType: payload.Schema().Key(),
		Payload:     data,
	}

	for _, opt := range opts {
		opt(e)
	}

	// Receivers reject envelopes that fail Validate, so a sender must not
	// be able to build one
	if err := e.Validate(); err != nil {
		return nil, err
	}

	return e, nil
}

// Broadcast reports whether the envelope targets every subscriber of its
// topic rather than a single component.
func (e *Envelope) Broadcast() bool {
	return e.TargetID == ""
}

// Validate checks envelope integrity: id, known communication type, source,
// and exactly one serialized payload.
func (e *Envelope) Validate() error {
	if e.ID == "" {
		return errors.WrapInvalid(fmt.Errorf("envelope id is required"),
			"message", "Envelope.Validate", "id validation")
	}
	if !e.Type.IsValid() {
		return errors.WrapInvalid(fmt.Errorf("unknown communication type %q", e.Type),
			"message", "Envelope.Validate", "communication type validation")
	}
	if e.SourceID == "" {
		return errors.WrapInvalid(fmt.Errorf("source id is required"),
			"message", "Envelope.Validate", "source validation")
	}
	if !e.Priority.IsValid() {
		return errors.WrapInvalid(fmt.Errorf("priority %d is not a valid level", e.Priority),
			"message", "Envelope.Validate", "priority validation")
	}
	if e.PayloadType == "" || len(e.Payload) == 0 {
		return errors.WrapInvalid(fmt.Errorf("envelope must carry exactly one payload"),
			"message", "Envelope.Validate", "payload validation")
	}
	return nil
}

// DecodePayload decodes the carried payload through the registry.
// Fails with a malformed-payload error naming the offending type when the
// payload bytes do not decode.
func (e *Envelope) DecodePayload(reg *Registry) (Payload, error) {
	return reg.Decode(e.PayloadType, e.Payload)
}

// Encode serializes the envelope for the wire
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses an envelope from wire bytes
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Malformed("envelope", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
