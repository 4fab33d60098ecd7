package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_Key(t *testing.T) {
	mt := Type{Domain: "robotics", Category: "motion_command", Version: "v1"}
	assert.Equal(t, "robotics.motion_command.v1", mt.Key())
	assert.Equal(t, mt.Key(), mt.String())
}

func TestType_IsValid(t *testing.T) {
	assert.True(t, Type{Domain: "a", Category: "b", Version: "v1"}.IsValid())
	assert.False(t, Type{Domain: "a", Category: "b"}.IsValid())
	assert.False(t, Type{}.IsValid())
}

func TestParseType(t *testing.T) {
	mt, err := ParseType("robotics.sensor_data.v1")
	require.NoError(t, err)
	assert.Equal(t, Type{Domain: "robotics", Category: "sensor_data", Version: "v1"}, mt)

	_, err = ParseType("not-a-key")
	assert.Error(t, err)

	_, err = ParseType("too.many.parts.here")
	assert.Error(t, err)

	_, err = ParseType("empty..segment")
	assert.Error(t, err)
}

func TestCommunicationType_IsValid(t *testing.T) {
	for _, ct := range AllCommunicationTypes() {
		assert.True(t, ct.IsValid(), "communication type %q should be valid", ct)
	}
	assert.False(t, CommunicationType("carrier_pigeon").IsValid())
}

func TestPriority_Ordering(t *testing.T) {
	assert.Less(t, PriorityLow, PriorityNormal)
	assert.Less(t, PriorityNormal, PriorityHigh)
	assert.Less(t, PriorityHigh, PriorityCritical)
}

func TestPriority_String(t *testing.T) {
	tests := []struct {
		priority Priority
		expected string
	}{
		{PriorityLow, "low"},
		{PriorityNormal, "normal"},
		{PriorityHigh, "high"},
		{PriorityCritical, "critical"},
		{Priority(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.priority.String())
	}
}

func TestPriority_IsValid(t *testing.T) {
	assert.True(t, PriorityLow.IsValid())
	assert.True(t, PriorityCritical.IsValid())
	assert.False(t, Priority(-1).IsValid())
	assert.False(t, Priority(4).IsValid())
}
