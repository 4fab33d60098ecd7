package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deadline helper for optional pointer fields
func f64(v float64) *float64 { return &v }

func TestPayloadRoundTrip(t *testing.T) {
	// Every payload type with representative field values. Encode then
	// decode must reproduce an equal value.
	payloads := []Payload{
		&ComponentState{
			ComponentID:         "sphere-1",
			ComponentType:       ComponentSphere,
			Position:            []float64{1, 2, 3},
			Orientation:         []float64{0, 0, 0.7071, 0.7071},
			Velocity:            []float64{0.1, 0, 0},
			AngularVelocity:     []float64{0, 0, 0.5},
			Status:              "moving",
			BatteryLevel:        87.5,
			Temperature:         26.4,
			ConnectedComponents: []string{"joint-1", "sensor-2"},
			Active:              true,
			Timestamp:           1700000000.25,
		},
		&MotionCommand{
			TargetPosition: []float64{4, 5, 6},
			MotionType:     MotionArticulated,
			Duration:       2.5,
			Relative:       true,
			Priority:       PriorityHigh,
		},
		&SensorData{
			SensorID:   "gyro-1",
			SensorType: SensorVelocity,
			Values:     map[string]any{"wx": 0.1, "wy": -0.2},
			Confidence: 0.85,
			Units:      map[string]string{"wx": "rad/s", "wy": "rad/s"},
		},
		&ActuatorCommand{
			ActuatorID:   "servo-4",
			ActuatorType: ActuatorServo,
			Action:       "rotate",
			Parameters:   map[string]any{"angle": 45.0},
			Duration:     1.0,
			Priority:     PriorityNormal,
		},
		&JointConfiguration{
			JointID:             "joint-1",
			JointType:           "hinge",
			ConnectedComponents: []string{"sphere-1", "sphere-2"},
			Position:            []float64{0, 1, 0},
			Orientation:         []float64{0, 0, 0, 1},
			Limits:              map[string]any{"min": -1.57, "max": 1.57},
			Stiffness:           0.8,
			Damping:             0.2,
		},
		&InterfaceSettings{
			InterfaceID:          "iface-7",
			InterfaceType:        "magnetic",
			ConnectedComponents:  []string{"sphere-1", "sphere-3"},
			ConnectionStrength:   0.9,
			CommunicationEnabled: true,
			PowerTransferEnabled: true,
			DataTransferRate:     2.0,
			Flags:                map[string]bool{"latched": true},
		},
		&TaskAssignment{
			TaskID:             "task-42",
			TaskType:           "inspect",
			AssignedComponents: []string{"sensor-2"},
			Priority:           2,
			Deadline:           f64(1700000100),
			Parameters:         map[string]any{"area": "north"},
			Dependencies:       []string{"task-41"},
			Status:             TaskStatusInProgress,
		},
		&CoordinationMessage{
			CoordinationType: CoordFormation,
			SourceComponent:  "controller-1",
			TargetComponents: []string{"sphere-1", "sphere-2"},
			Action:           "form_grid",
			Parameters:       map[string]any{"spacing": 1.5},
			Priority:         PriorityCritical,
			ResponseRequired: true,
			GroupID:          "grid-a",
		},
		&SimulationControl{
			Command:            "pause",
			AffectedComponents: []string{"sphere-1"},
			TimeScale:          0.5,
			PhysicsParameters:  map[string]any{"gravity": -9.81},
		},
		&PhysicalProperties{
			ComponentID:    "sphere-1",
			Mass:           0.25,
			InertiaTensor:  []float64{1, 0, 0, 0, 2, 0, 0, 0, 3},
			CenterOfMass:   []float64{0, 0, 0.1},
			Material:       "titanium",
			Friction:       0.3,
			Restitution:    0.6,
			Dimensions:     []float64{0.1, 0.1, 0.1},
			CollisionShape: "sphere",
		},
		&PowerState{
			ComponentID:      "power-1",
			BatteryLevel:     42,
			PowerConsumption: 1.5,
			PowerGeneration:  0.2,
			Charging:         true,
			AvailablePower:   40,
			PowerMode:        "eco",
		},
		&ErrorMessage{
			ComponentID:      "sphere-2",
			ErrorCode:        17,
			ErrorType:        "overheat",
			ErrorMessage:     "temperature above limit",
			Severity:         "critical",
			Recoverable:      false,
			SuggestedActions: []string{"throttle", "cool_down"},
			Timestamp:        1700000000,
		},
		&CommandData{Command: "move", Params: map[string]any{"x": 1.0}},
		&TelemetryData{TelemetryType: "state", Values: map[string]any{"status": "idle"}},
		&CoordinationData{
			CoordinationType: "state_sync",
			Action:           "request_state",
			Params:           map[string]any{"group_id": "g1"},
			ResponseRequired: true,
		},
	}

	reg := DefaultRegistry()

	for _, p := range payloads {
		t.Run(p.Schema().Key(), func(t *testing.T) {
			require.NoError(t, p.Validate())

			data, err := json.Marshal(p)
			require.NoError(t, err)

			decoded, err := reg.Decode(p.Schema().Key(), data)
			require.NoError(t, err)
			assert.Equal(t, p, decoded)
		})
	}
}

func TestDecodeDefaults(t *testing.T) {
	reg := DefaultRegistry()

	t.Run("component state", func(t *testing.T) {
		decoded, err := reg.Decode(ComponentStateType.Key(), []byte(`{"component_id":"s1","component_type":"sphere"}`))
		require.NoError(t, err)

		state := decoded.(*ComponentState)
		assert.Equal(t, []float64{0, 0, 0}, state.Position)
		assert.Equal(t, []float64{0, 0, 0, 1}, state.Orientation)
		assert.Equal(t, "idle", state.Status)
		assert.Equal(t, 100.0, state.BatteryLevel)
		assert.Equal(t, 25.0, state.Temperature)
		assert.True(t, state.Active)
	})

	t.Run("explicit false survives decode", func(t *testing.T) {
		decoded, err := reg.Decode(ComponentStateType.Key(), []byte(`{"component_id":"s1","active":false,"battery_level":0}`))
		require.NoError(t, err)

		state := decoded.(*ComponentState)
		assert.False(t, state.Active)
		assert.Equal(t, 0.0, state.BatteryLevel)
	})

	t.Run("sensor confidence", func(t *testing.T) {
		decoded, err := reg.Decode(SensorDataType.Key(), []byte(`{"sensor_id":"x","sensor_type":"touch"}`))
		require.NoError(t, err)
		assert.Equal(t, 1.0, decoded.(*SensorData).Confidence)
	})

	t.Run("simulation control", func(t *testing.T) {
		decoded, err := reg.Decode(SimulationControlType.Key(), []byte(`{}`))
		require.NoError(t, err)

		sim := decoded.(*SimulationControl)
		assert.Equal(t, "start", sim.Command)
		assert.Equal(t, 1.0, sim.TimeScale)
	})

	t.Run("physical properties", func(t *testing.T) {
		decoded, err := reg.Decode(PhysicalPropertiesType.Key(), []byte(`{"component_id":"s1"}`))
		require.NoError(t, err)

		props := decoded.(*PhysicalProperties)
		assert.Equal(t, 1.0, props.Mass)
		assert.Equal(t, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, props.InertiaTensor)
		assert.Equal(t, "box", props.CollisionShape)
	})

	t.Run("error message", func(t *testing.T) {
		decoded, err := reg.Decode(ErrorMessageType.Key(), []byte(`{"component_id":"s1"}`))
		require.NoError(t, err)

		errMsg := decoded.(*ErrorMessage)
		assert.Equal(t, "unknown", errMsg.ErrorType)
		assert.Equal(t, "info", errMsg.Severity)
		assert.True(t, errMsg.Recoverable)
	})
}

func TestDecodeUnknownFieldsIgnored(t *testing.T) {
	reg := DefaultRegistry()

	decoded, err := reg.Decode(PowerStateType.Key(),
		[]byte(`{"component_id":"p1","battery_level":50,"future_field":{"nested":true}}`))
	require.NoError(t, err)
	assert.Equal(t, 50.0, decoded.(*PowerState).BatteryLevel)
}

func TestPayloadValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantErr string
	}{
		{
			name:    "battery over range",
			payload: &ComponentState{ComponentID: "s1", BatteryLevel: 120},
			wantErr: "battery_level",
		},
		{
			name:    "missing component id",
			payload: &ComponentState{BatteryLevel: 50},
			wantErr: "component_id",
		},
		{
			name:    "bad orientation length",
			payload: &ComponentState{ComponentID: "s1", BatteryLevel: 50, Orientation: []float64{0, 0, 1}},
			wantErr: "orientation",
		},
		{
			name:    "negative duration",
			payload: &MotionCommand{MotionType: MotionLinear, Duration: -1, Priority: PriorityNormal},
			wantErr: "duration",
		},
		{
			name:    "confidence out of range",
			payload: &SensorData{SensorID: "s", SensorType: SensorTouch, Confidence: 1.5},
			wantErr: "confidence",
		},
		{
			name:    "joint with one component",
			payload: &JointConfiguration{JointID: "j", JointType: "hinge", ConnectedComponents: []string{"a"}},
			wantErr: "at least 2",
		},
		{
			name:    "bad task status",
			payload: &TaskAssignment{TaskID: "t", TaskType: "x", Status: "paused"},
			wantErr: "status",
		},
		{
			name:    "zero time scale",
			payload: &SimulationControl{Command: "start", TimeScale: 0},
			wantErr: "time_scale",
		},
		{
			name:    "zero mass",
			payload: &PhysicalProperties{ComponentID: "c", Mass: 0},
			wantErr: "mass",
		},
		{
			name:    "negative power consumption",
			payload: &PowerState{ComponentID: "c", BatteryLevel: 50, PowerConsumption: -1},
			wantErr: "power_consumption",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMotionCommand_NoTargetsAccepted(t *testing.T) {
	// A motion command with every target unset is valid; the receiving
	// component decides what that means.
	cmd := &MotionCommand{MotionType: MotionLinear, Priority: PriorityNormal}
	assert.NoError(t, cmd.Validate())
	assert.False(t, cmd.HasTarget())

	cmd.TargetVelocity = []float64{1, 0, 0}
	assert.True(t, cmd.HasTarget())
}

func TestComponentState_Clone(t *testing.T) {
	state := NewComponentState("sphere-1", ComponentSphere)
	state.ConnectedComponents = []string{"joint-1"}

	clone := state.Clone()
	clone.Position[0] = 99
	clone.ConnectedComponents[0] = "changed"

	assert.Equal(t, 0.0, state.Position[0])
	assert.Equal(t, "joint-1", state.ConnectedComponents[0])
}

func TestNewComponentState_Defaults(t *testing.T) {
	state := NewComponentState("sphere-1", ComponentSphere)

	assert.Equal(t, "sphere-1", state.ComponentID)
	assert.Equal(t, ComponentSphere, state.ComponentType)
	assert.Equal(t, []float64{0, 0, 0, 1}, state.Orientation)
	assert.Equal(t, 100.0, state.BatteryLevel)
	assert.True(t, state.Active)
	assert.NoError(t, state.Validate())
}
