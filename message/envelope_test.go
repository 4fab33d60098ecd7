package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	buserrors "github.com/c360/componentbus/errors"
)

func TestNewEnvelope(t *testing.T) {
	payload := NewComponentState("sphere-1", ComponentSphere)

	env, err := NewEnvelope(CommTypeTelemetry, "sphere-1", "", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, CommTypeTelemetry, env.Type)
	assert.Equal(t, "sphere-1", env.SourceID)
	assert.True(t, env.Broadcast())
	assert.Equal(t, PriorityNormal, env.Priority)
	assert.Empty(t, env.CorrelationID)
	assert.Equal(t, "robotics.component_state.v1", env.PayloadType)
	assert.False(t, env.Timestamp.IsZero())
	assert.NoError(t, env.Validate())
}

func TestNewEnvelope_Options(t *testing.T) {
	ts := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	env, err := NewEnvelope(CommTypeCoordination, "a", "b",
		&CoordinationData{CoordinationType: "state_sync", Action: "request_state"},
		WithPriority(PriorityCritical),
		WithCorrelationID("corr-123"),
		WithTimestamp(ts),
	)
	require.NoError(t, err)

	assert.Equal(t, PriorityCritical, env.Priority)
	assert.Equal(t, "corr-123", env.CorrelationID)
	assert.Equal(t, ts, env.Timestamp)
	assert.Equal(t, "b", env.TargetID)
	assert.False(t, env.Broadcast())
}

func TestNewEnvelope_Rejections(t *testing.T) {
	valid := NewComponentState("s", ComponentSphere)

	_, err := NewEnvelope(CommunicationType("bogus"), "s", "", valid)
	assert.Error(t, err)

	_, err = NewEnvelope(CommTypeCommand, "", "", valid)
	assert.Error(t, err)

	_, err = NewEnvelope(CommTypeCommand, "s", "", nil)
	assert.Error(t, err)

	// Invalid payloads are rejected before wrapping
	_, err = NewEnvelope(CommTypeTelemetry, "s", "", &ComponentState{ComponentID: "s", BatteryLevel: 200})
	assert.Error(t, err)
	assert.True(t, buserrors.IsInvalid(err))

	// Options cannot produce an envelope a receiver would reject
	_, err = NewEnvelope(CommTypeCommand, "s", "", valid, WithPriority(Priority(9)))
	assert.Error(t, err)
	assert.True(t, buserrors.IsInvalid(err))
}

func TestEnvelope_WireRoundTrip(t *testing.T) {
	payload := &SensorData{
		SensorID:   "gyro-1",
		SensorType: SensorVelocity,
		Values:     map[string]any{"wz": 0.25},
		Confidence: 0.9,
	}

	env, err := NewEnvelope(CommTypeTelemetry, "sensor-1", "controller-1", payload,
		WithPriority(PriorityHigh))
	require.NoError(t, err)

	wire, err := env.Encode()
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(wire)
	require.NoError(t, err)
	assert.Equal(t, env, decoded)

	// The carried payload decodes back to the original value
	inner, err := decoded.DecodePayload(DefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, payload, inner)
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, buserrors.IsInvalid(err))

	// Structurally valid JSON but missing the payload
	_, err = DecodeEnvelope([]byte(`{"id":"x","type":"command","source_id":"a"}`))
	assert.Error(t, err)
}

func TestEnvelope_Validate(t *testing.T) {
	base := func() *Envelope {
		env, err := NewCommandMessage("a", "b", "move", map[string]any{"x": 1.0})
		require.NoError(t, err)
		return env
	}

	env := base()
	env.ID = ""
	assert.Error(t, env.Validate())

	env = base()
	env.Type = "nonsense"
	assert.Error(t, env.Validate())

	env = base()
	env.SourceID = ""
	assert.Error(t, env.Validate())

	env = base()
	env.Priority = Priority(9)
	assert.Error(t, env.Validate())

	env = base()
	env.Payload = nil
	assert.Error(t, env.Validate())
}
