package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/componentbus/message"
	"github.com/c360/componentbus/natsclient"
)

// runBackendParity runs the same scenario against any backend so mock and
// NATS behavior stay aligned: callers cannot observe which backend is active
// except through timing.
func runBackendParity(t *testing.T, backend Backend) {
	t.Helper()

	b, err := New("parity-bridge", WithLogger(testLogger()), WithBackend(backend))
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Stop(5 * time.Second) })

	handle, err := b.CreatePublisher("sphere-1", message.CommTypeCommand)
	require.NoError(t, err)

	received := make(chan *message.Envelope, 8)
	require.NoError(t, b.Subscribe(context.Background(), handle.Topic, func(_ context.Context, env *message.Envelope) {
		received <- env
	}))

	// NATS subscription setup is asynchronous
	time.Sleep(200 * time.Millisecond)

	var sent []*message.Envelope
	for i := 0; i < 5; i++ {
		env, err := message.NewCommandMessage("controller", "sphere-1", "move", map[string]any{"seq": i})
		require.NoError(t, err)
		require.True(t, b.Publish(context.Background(), "sphere-1", message.CommTypeCommand, env))
		sent = append(sent, env)
	}

	for _, want := range sent {
		select {
		case got := <-received:
			assert.Equal(t, want.ID, got.ID)
		case <-time.After(5 * time.Second):
			t.Fatal("delivery incomplete")
		}
	}

	// After stop the contract is identical: publish returns false
	require.NoError(t, b.Stop(5*time.Second))
	env, err := message.NewCommandMessage("controller", "sphere-1", "move", nil)
	require.NoError(t, err)
	assert.False(t, b.Publish(context.Background(), "sphere-1", message.CommTypeCommand, env))
}

func TestParity_MockBackend(t *testing.T) {
	runBackendParity(t, NewMockBackend(WithMockLogger(testLogger())))
}

func TestParity_NATSBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := natsclient.NewTestClient(t)
	runBackendParity(t, NewNATSBackend(tc.Client, testLogger()))
}
