package message

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	buserrors "github.com/c360/componentbus/errors"
)

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	err := reg.RegisterPayload(func() Payload { return &PowerState{} }, "power")
	require.NoError(t, err)

	registration, ok := reg.Lookup(PowerStateType.Key())
	require.True(t, ok)
	assert.Equal(t, "robotics", registration.Domain)
	assert.Equal(t, PowerStateType.Key(), registration.MessageType())
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.RegisterPayload(func() Payload { return &PowerState{} }, "power"))
	err := reg.RegisterPayload(func() Payload { return &PowerState{} }, "power again")
	assert.Error(t, err)
}

func TestRegistry_RegisterValidation(t *testing.T) {
	reg := NewRegistry()

	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(&Registration{}))
	assert.Error(t, reg.Register(&Registration{
		Factory: func() Payload { return &PowerState{} },
		Domain:  "robotics",
		// missing category and version
	}))
	assert.Error(t, reg.RegisterPayload(nil, "no factory"))
}

func TestRegistry_DecodeUnknownType(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Decode("robotics.unheard_of.v9", []byte(`{}`))
	require.Error(t, err)
	assert.True(t, buserrors.IsInvalid(err))
}

func TestRegistry_DecodeMalformed(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.Decode(MotionCommandType.Key(), []byte(`{"duration": "not a number"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, buserrors.ErrMalformedPayload))
	assert.Contains(t, err.Error(), MotionCommandType.Key())
}

func TestDefaultRegistry_Complete(t *testing.T) {
	reg := DefaultRegistry()

	expected := []Type{
		ComponentStateType, MotionCommandType, SensorDataType, ActuatorCommandType,
		JointConfigurationType, InterfaceSettingsType, TaskAssignmentType,
		CoordinationMessageType, SimulationControlType, PhysicalPropertiesType,
		PowerStateType, ErrorMessageType,
		CommandDataType, TelemetryDataType, CoordinationDataType,
	}

	assert.Len(t, reg.Types(), len(expected))
	for _, mt := range expected {
		_, ok := reg.Lookup(mt.Key())
		assert.True(t, ok, "type %s should be registered", mt.Key())
	}
}
