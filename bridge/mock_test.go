package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/componentbus/errors"
)

func TestMockBackend_PublishBeforeStart(t *testing.T) {
	b := NewMockBackend(WithMockLogger(testLogger()))
	require.NoError(t, b.CreatePublisher("micro_robot.command.sphere-1"))

	err := b.Publish(context.Background(), "micro_robot.command.sphere-1", []byte("{}"))
	assert.ErrorIs(t, err, errors.ErrNotStarted)
}

func TestMockBackend_PublishUnknownTopic(t *testing.T) {
	b := NewMockBackend(WithMockLogger(testLogger()))
	require.NoError(t, b.Start(context.Background()))

	err := b.Publish(context.Background(), "micro_robot.command.ghost", []byte("{}"))
	assert.ErrorIs(t, err, errors.ErrTopicUnavailable)
}

func TestMockBackend_QueueFullDrops(t *testing.T) {
	b := NewMockBackend(WithMockLogger(testLogger()), WithMockBufferSize(1))
	require.NoError(t, b.Start(context.Background()))

	topic := "micro_robot.telemetry.sensor-1"
	require.NoError(t, b.CreatePublisher(topic))

	var dropped []string
	var mu sync.Mutex
	b.onDrop(func(topic string) {
		mu.Lock()
		dropped = append(dropped, topic)
		mu.Unlock()
	})

	block := make(chan struct{})
	require.NoError(t, b.Subscribe(context.Background(), topic, func(_ context.Context, _ []byte) {
		<-block
	}))

	// First message occupies the worker, second fills the queue, third drops
	require.NoError(t, b.Publish(context.Background(), topic, []byte("1")))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, b.Publish(context.Background(), topic, []byte("2")))
	require.NoError(t, b.Publish(context.Background(), topic, []byte("3")))

	mu.Lock()
	assert.NotEmpty(t, dropped)
	mu.Unlock()

	close(block)
	require.NoError(t, b.Stop(time.Second))
}

func TestMockBackend_StopDrainsBuffered(t *testing.T) {
	b := NewMockBackend(WithMockLogger(testLogger()))
	require.NoError(t, b.Start(context.Background()))

	topic := "micro_robot.state.sphere-1"
	require.NoError(t, b.CreatePublisher(topic))

	var mu sync.Mutex
	var got int
	require.NoError(t, b.Subscribe(context.Background(), topic, func(_ context.Context, _ []byte) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		got++
		mu.Unlock()
	}))

	const n = 10
	for i := 0; i < n; i++ {
		require.NoError(t, b.Publish(context.Background(), topic, []byte("{}")))
	}

	require.NoError(t, b.Stop(5*time.Second))

	mu.Lock()
	assert.Equal(t, n, got, "buffered messages delivered before stop returned")
	mu.Unlock()
}

func TestMockBackend_StopIsTerminal(t *testing.T) {
	b := NewMockBackend(WithMockLogger(testLogger()))
	require.NoError(t, b.Start(context.Background()))
	require.NoError(t, b.Stop(time.Second))

	assert.ErrorIs(t, b.Start(context.Background()), errors.ErrAlreadyStopped)
	assert.ErrorIs(t, b.CreatePublisher("t"), errors.ErrAlreadyStopped)
	assert.ErrorIs(t, b.Subscribe(context.Background(), "t", func(context.Context, []byte) {}), errors.ErrAlreadyStopped)
	require.NoError(t, b.Stop(time.Second), "second stop is a no-op")
}

func TestMockBackend_Unsubscribe(t *testing.T) {
	b := NewMockBackend(WithMockLogger(testLogger()))
	require.NoError(t, b.Start(context.Background()))

	topic := "micro_robot.command.sphere-1"
	require.NoError(t, b.CreatePublisher(topic))

	received := make(chan struct{}, 2)
	require.NoError(t, b.Subscribe(context.Background(), topic, func(_ context.Context, _ []byte) {
		received <- struct{}{}
	}))
	require.NoError(t, b.Unsubscribe(topic))

	require.NoError(t, b.Publish(context.Background(), topic, []byte("{}")))

	select {
	case <-received:
		t.Fatal("received after unsubscribe")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, b.Stop(time.Second))
}
