package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/componentbus/bridge"
	"github.com/c360/componentbus/message"
	"github.com/c360/componentbus/metric"
)

func startedBridge(t *testing.T) *bridge.Bridge {
	t.Helper()
	b, err := bridge.New("main")
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Stop(time.Second) })
	return b
}

func TestNew_RequiresBridge(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge is required")
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	b := startedBridge(t)
	_, err := New(b, WithAddr(""))
	require.Error(t, err)
}

func TestStatusEndpoint(t *testing.T) {
	b := startedBridge(t)
	g, err := New(b)
	require.NoError(t, err)

	ts := httptest.NewServer(g.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "main", status.Bridge.Name)
	assert.True(t, status.Bridge.Running)
	assert.Zero(t, status.Gateway.FeedClients)
}

func TestStatusEndpoint_MethodNotAllowed(t *testing.T) {
	b := startedBridge(t)
	g, err := New(b)
	require.NoError(t, err)

	ts := httptest.NewServer(g.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/status", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "not allowed")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := metric.NewRegistry()
	b, err := bridge.New("main", bridge.WithMetrics(reg.Metrics))
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Stop(time.Second) })

	// Publishing without a registered topic increments the drop counter,
	// so the scrape carries a labeled series for it
	env, err := message.NewTelemetryMessage("sphere-1", "", "status", map[string]any{"battery": 0.91})
	require.NoError(t, err)
	require.False(t, b.Publish(context.Background(), "sphere-1", message.CommTypeTelemetry, env))

	g, err := New(b, WithRegistry(reg))
	require.NoError(t, err)

	ts := httptest.NewServer(g.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "componentbus_messages_dropped_total")
	assert.Contains(t, string(body), "componentbus_bridge_active_topics")
}

func TestMetricsEndpoint_DisabledWithoutRegistry(t *testing.T) {
	b := startedBridge(t)
	g, err := New(b)
	require.NoError(t, err)

	ts := httptest.NewServer(g.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebsocketFeed(t *testing.T) {
	ctx := context.Background()
	b := startedBridge(t)
	g, err := New(b, WithWebsocketFeed(true))
	require.NoError(t, err)

	ts := httptest.NewServer(g.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return g.feed.clientCount() == 1
	}, time.Second, 10*time.Millisecond, "client never registered with feed")

	require.NoError(t, g.WatchTopic(ctx, message.CommTypeTelemetry, "sphere-1"))

	_, err = b.CreatePublisher("sphere-1", message.CommTypeTelemetry)
	require.NoError(t, err)
	env, err := b.NewTelemetryMessage("sphere-1", "", "status", map[string]any{"battery": 0.91})
	require.NoError(t, err)
	require.True(t, b.Publish(ctx, "sphere-1", message.CommTypeTelemetry, env))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame FeedFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, b.Topic(message.CommTypeTelemetry, "sphere-1"), frame.Topic)
	require.NotNil(t, frame.Envelope)
	assert.Equal(t, "sphere-1", frame.Envelope.SourceID)
	assert.Equal(t, env.ID, frame.Envelope.ID)
}

func TestWatchTopic_RequiresFeed(t *testing.T) {
	b := startedBridge(t)
	g, err := New(b)
	require.NoError(t, err)

	err = g.WatchTopic(context.Background(), message.CommTypeTelemetry, "sphere-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "websocket feed not enabled")
}

func TestStartStop(t *testing.T) {
	b := startedBridge(t)
	g, err := New(b, WithAddr("127.0.0.1:0"))
	require.NoError(t, err)

	require.NoError(t, g.Start(context.Background()))
	err = g.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already")

	require.NoError(t, g.Stop(time.Second))
	// Stopping twice is a no-op.
	require.NoError(t, g.Stop(time.Second))
}
