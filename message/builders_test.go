package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandMessage(t *testing.T) {
	env, err := NewCommandMessage("controller-1", "sphere-1", "move", map[string]any{"x": 1.0})
	require.NoError(t, err)

	assert.Equal(t, CommTypeCommand, env.Type)
	assert.Equal(t, "controller-1", env.SourceID)
	assert.Equal(t, "sphere-1", env.TargetID)

	payload, err := env.DecodePayload(DefaultRegistry())
	require.NoError(t, err)

	cmd := payload.(*CommandData)
	assert.Equal(t, "move", cmd.Command)
	assert.Equal(t, map[string]any{"x": 1.0}, cmd.Params)
}

func TestNewTelemetryMessage(t *testing.T) {
	env, err := NewTelemetryMessage("sensor-1", "", "state", map[string]any{"status": "idle"})
	require.NoError(t, err)

	assert.Equal(t, CommTypeTelemetry, env.Type)
	assert.True(t, env.Broadcast())

	payload, err := env.DecodePayload(DefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, "state", payload.(*TelemetryData).TelemetryType)
}

func TestNewCoordinationMessage(t *testing.T) {
	env, err := NewCoordinationMessage("a", "b", "state_sync", "request_state", nil,
		WithPriority(PriorityHigh))
	require.NoError(t, err)

	assert.Equal(t, CommTypeCoordination, env.Type)
	assert.Equal(t, PriorityHigh, env.Priority)

	payload, err := env.DecodePayload(DefaultRegistry())
	require.NoError(t, err)

	coord := payload.(*CoordinationData)
	assert.Equal(t, "state_sync", coord.CoordinationType)
	assert.Equal(t, "request_state", coord.Action)
}

func TestBuilders_AreSideEffectFree(t *testing.T) {
	// Builders only construct envelopes; two calls produce independent
	// envelopes with distinct ids.
	env1, err := NewCommandMessage("a", "b", "move", nil)
	require.NoError(t, err)
	env2, err := NewCommandMessage("a", "b", "move", nil)
	require.NoError(t, err)

	assert.NotEqual(t, env1.ID, env2.ID)
}

func TestBuilders_RejectEmptyCommand(t *testing.T) {
	_, err := NewCommandMessage("a", "b", "", nil)
	assert.Error(t, err)

	_, err = NewTelemetryMessage("a", "", "", nil)
	assert.Error(t, err)

	_, err = NewCoordinationMessage("a", "", "state_sync", "", nil)
	assert.Error(t, err)
}
