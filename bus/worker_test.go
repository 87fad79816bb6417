package bus

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/concierge/log"
)

func TestWorkerRequestReply(t *testing.T) {
	b := newTestBus()
	require.NoError(t, b.Register("caller"))

	echo, err := NewWorker(b, "echo", func(ctx context.Context, m Message, mem *Memory) (Reply, bool) {
		return Reply{Content: "echo: " + m.Content}, true
	}, &log.NoOpLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := echo.Start(ctx)

	_, err = b.Send(ctx, "caller", "echo", "ping", nil)
	require.NoError(t, err)

	reply, ok, err := b.Receive(ctx, "caller", 2*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "echo", reply.From)
	assert.Equal(t, "echo: ping", reply.Content)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
}

func TestWorkerPrivateMemory(t *testing.T) {
	b := newTestBus()
	require.NoError(t, b.Register("caller"))

	counter, err := NewWorker(b, "counter", func(ctx context.Context, m Message, mem *Memory) (Reply, bool) {
		n := 0
		if v, ok := mem.Get("count"); ok {
			n = v.(int)
		}
		n++
		mem.Set("count", n)
		return Reply{Content: strings.Repeat("x", n)}, true
	}, &log.NoOpLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	counter.Start(ctx)

	for want := 1; want <= 3; want++ {
		_, err := b.Send(ctx, "caller", "counter", "tick", nil)
		require.NoError(t, err)
		reply, ok, err := b.Receive(ctx, "caller", 2*time.Second)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Len(t, reply.Content, want)
	}
}

func TestWorkerRecordsInteractionHistory(t *testing.T) {
	b := newTestBus()
	require.NoError(t, b.Register("caller"))

	echo, err := NewWorker(b, "echo", func(ctx context.Context, m Message, mem *Memory) (Reply, bool) {
		if m.Content == "ignore me" {
			return Reply{}, false
		}
		return Reply{Content: "echo: " + m.Content}, true
	}, &log.NoOpLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := echo.Start(ctx)

	for _, content := range []string{"first", "ignore me", "second"} {
		_, err := b.Send(ctx, "caller", "echo", content, nil)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, ok, err := b.Receive(ctx, "caller", 2*time.Second)
		require.NoError(t, err)
		require.True(t, ok)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancellation")
	}

	// Every handled request lands in history, suppressed replies with an
	// empty response, in handling order.
	history := echo.Memory().History()
	require.Len(t, history, 3)
	assert.Equal(t, "first", history[0].Request)
	assert.Equal(t, "echo: first", history[0].Response)
	assert.Equal(t, "ignore me", history[1].Request)
	assert.Empty(t, history[1].Response)
	assert.Equal(t, "second", history[2].Request)
	assert.Equal(t, "caller", history[2].From)
}

func TestWorkerSuppressedReply(t *testing.T) {
	b := newTestBus()
	require.NoError(t, b.Register("caller"))

	silent, err := NewWorker(b, "silent", func(ctx context.Context, m Message, mem *Memory) (Reply, bool) {
		return Reply{}, false
	}, &log.NoOpLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	silent.Start(ctx)

	_, err = b.Send(ctx, "caller", "silent", "anyone there?", nil)
	require.NoError(t, err)

	_, ok, err := b.Receive(ctx, "caller", 200*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}
