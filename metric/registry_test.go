package metric

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.Metrics)

	// Core metrics are usable immediately
	r.Metrics.MessagesPublished.WithLabelValues("test-bridge", "micro_robot.command.sphere-1").Inc()
	r.Metrics.ActiveTopics.Set(3)

	count := testutil.ToFloat64(r.Metrics.MessagesPublished.WithLabelValues("test-bridge", "micro_robot.command.sphere-1"))
	assert.Equal(t, 1.0, count)
}

func TestRegistry_Isolated(t *testing.T) {
	// Two registries never collide, unlike the prometheus default registry
	r1 := NewRegistry()
	r2 := NewRegistry()

	r1.Metrics.ActiveTopics.Set(1)
	r2.Metrics.ActiveTopics.Set(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r1.Metrics.ActiveTopics))
	assert.Equal(t, 2.0, testutil.ToFloat64(r2.Metrics.ActiveTopics))
}

func TestRegistry_RegisterCollector(t *testing.T) {
	r := NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "component_battery_level",
		Help: "battery",
	})

	require.NoError(t, r.RegisterCollector("battery", gauge))
	assert.Error(t, r.RegisterCollector("battery", gauge), "duplicate names rejected")

	assert.True(t, r.Unregister("battery"))
	assert.False(t, r.Unregister("battery"))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.Metrics.MessagesDropped.WithLabelValues("b", "stopped").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "componentbus_messages_dropped_total")
}
