package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *recorder) handle(channel string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, channel+"|"+string(payload))
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestPublishReachesOtherInstance(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rec := &recorder{}
	subscriber, err := Open(ctx, mr.Addr(), "", 0, rec.handle)
	require.NoError(t, err)
	t.Cleanup(func() { subscriber.Close() })
	go subscriber.Run()

	publisher, err := Open(ctx, mr.Addr(), "", 0, func(string, []byte) {})
	require.NoError(t, err)
	t.Cleanup(func() { publisher.Close() })

	require.NoError(t, subscriber.Subscribe(ctx, "MESSAGEr1"))
	require.NoError(t, publisher.Publish(ctx, "MESSAGEr1", []byte(`{"message":"hi"}`)))

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	assert.Equal(t, `MESSAGEr1|{"message":"hi"}`, rec.snapshot()[0])
}

func TestSubscribeIdempotent(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rec := &recorder{}
	bus, err := Open(ctx, mr.Addr(), "", 0, rec.handle)
	require.NoError(t, err)
	t.Cleanup(func() { bus.Close() })
	go bus.Run()

	require.NoError(t, bus.Subscribe(ctx, "MESSAGEr1"))
	require.NoError(t, bus.Subscribe(ctx, "MESSAGEr1"))

	require.NoError(t, bus.Publish(ctx, "MESSAGEr1", []byte("once")))
	waitFor(t, func() bool { return len(rec.snapshot()) >= 1 })

	// A double subscribe must not double delivery.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rec := &recorder{}
	bus, err := Open(ctx, mr.Addr(), "", 0, rec.handle)
	require.NoError(t, err)
	t.Cleanup(func() { bus.Close() })
	go bus.Run()

	require.NoError(t, bus.Subscribe(ctx, "MESSAGEr1"))
	require.NoError(t, bus.Publish(ctx, "MESSAGEr1", []byte("first")))
	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })

	require.NoError(t, bus.Unsubscribe(ctx, "MESSAGEr1"))
	// Unsubscribing an unknown channel is a no-op.
	require.NoError(t, bus.Unsubscribe(ctx, "MESSAGEr1"))

	require.NoError(t, bus.Publish(ctx, "MESSAGEr1", []byte("second")))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}
