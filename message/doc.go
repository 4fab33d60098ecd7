// Package message defines the typed payload model and transport envelope
// for the component bus.
//
// # Overview
//
// Components exchange typed payloads (state, motion, sensor, actuator,
// coordination, power, error) wrapped in an Envelope that carries routing
// metadata: source, optional target, communication type, priority, and a
// correlation id for request-response exchanges. Every envelope carries
// exactly one serialized payload.
//
// # Encode/decode contract
//
// For every valid payload p, decoding its encoded form reproduces an equal
// value. Unknown fields are ignored on decode (forward compatibility) and
// missing optional fields take documented defaults (confidence 1.0, active
// true, identity quaternion, and so on). Malformed input fails with a
// classified error naming the offending payload type.
//
// # Registry
//
// The Registry maps dotted type keys ("robotics.motion_command.v1") to
// payload factories so envelopes can be decoded without reflection.
// DefaultRegistry pre-registers every payload type in this package.
package message
