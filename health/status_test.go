package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360/componentbus/message"
)

func TestFromComponentState(t *testing.T) {
	tests := []struct {
		name       string
		state      *message.ComponentState
		wantStatus string
	}{
		{
			name:       "nil state",
			state:      nil,
			wantStatus: "unhealthy",
		},
		{
			name: "active with charge",
			state: &message.ComponentState{
				ComponentID:  "sphere-1",
				Active:       true,
				BatteryLevel: 85,
			},
			wantStatus: "healthy",
		},
		{
			name: "inactive",
			state: &message.ComponentState{
				ComponentID:  "sphere-1",
				Active:       false,
				BatteryLevel: 85,
			},
			wantStatus: "unhealthy",
		},
		{
			name: "low battery",
			state: &message.ComponentState{
				ComponentID:  "sphere-1",
				Active:       true,
				BatteryLevel: 10,
			},
			wantStatus: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromComponentState(tt.state)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantStatus == "healthy", got.Healthy)
		})
	}
}

func TestFromErrorReport(t *testing.T) {
	recoverable := FromErrorReport(&message.ErrorMessage{
		ComponentID:  "sphere-1",
		ErrorMessage: "actuator stalled",
		Recoverable:  true,
	})
	assert.True(t, recoverable.IsDegraded())
	assert.Equal(t, "actuator stalled", recoverable.Message)

	fatal := FromErrorReport(&message.ErrorMessage{
		ComponentID:  "sphere-1",
		ErrorMessage: "motor controller dead",
		Recoverable:  false,
	})
	assert.True(t, fatal.IsUnhealthy())
}

func TestAggregate(t *testing.T) {
	healthy := NewHealthy("a", "ok")
	degraded := NewDegraded("b", "battery low")
	unhealthy := NewUnhealthy("c", "inactive")

	tests := []struct {
		name       string
		subs       []Status
		wantStatus string
	}{
		{"empty", nil, "healthy"},
		{"all healthy", []Status{healthy, healthy}, "healthy"},
		{"one degraded", []Status{healthy, degraded}, "degraded"},
		{"unhealthy wins", []Status{healthy, degraded, unhealthy}, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate("bus", tt.subs)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Len(t, got.SubStatuses, len(tt.subs))
		})
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "error reported"},
		{"plain", "actuator stalled", "actuator stalled"},
		{"nats url", "connect to nats://10.0.0.5:4222 failed", "connect to [URL] failed"},
		{"ip address", "peer at 192.168.1.100 unreachable", "peer at [IP] unreachable"},
		{"credential", "auth failed: token=abc123", "auth failed: [REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeErrorMessage(tt.input))
		})
	}
}
