package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	topic   string
	payload string
}

func collector() (Handler, chan received) {
	ch := make(chan received, 16)
	return func(topic string, payload []byte) {
		ch <- received{topic: topic, payload: string(payload)}
	}, ch
}

func TestLocalBus_DeliversSynchronously(t *testing.T) {
	bus := NewLocalBus()
	ctx := context.Background()

	// nothing is listening yet
	require.NoError(t, bus.Publish(ctx, "room:1", []byte("dropped")))

	deliver, ch := collector()
	require.NoError(t, bus.Start(ctx, deliver))
	require.NoError(t, bus.Publish(ctx, "room:1", []byte("hello")))

	require.Len(t, ch, 1)
	assert.Equal(t, received{"room:1", "hello"}, <-ch)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Publish(ctx, "room:1", []byte("after close")))
	assert.Empty(t, ch)
}

func TestLocalBus_CanceledContext(t *testing.T) {
	bus := NewLocalBus()
	deliver, ch := collector()
	require.NoError(t, bus.Start(context.Background(), deliver))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, bus.Publish(ctx, "room:1", []byte("x")), context.Canceled)
	assert.Empty(t, ch)
}

func TestRedisBus_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	bus := NewRedisBus(rdb)
	deliver, ch := collector()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, bus.Start(ctx, deliver))

	require.NoError(t, bus.Publish(ctx, "room:3", []byte("first")))
	require.NoError(t, bus.Publish(ctx, "user:2:notifications", []byte("second")))

	for _, want := range []received{{"room:3", "first"}, {"user:2:notifications", "second"}} {
		select {
		case got := <-ch:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want.topic)
		}
	}

	// other prefixes are not ours
	require.NoError(t, rdb.Publish(ctx, "other:room:3", "foreign").Err())

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
	select {
	case got := <-ch:
		t.Fatalf("unexpected delivery %v", got)
	default:
	}
}

func TestRedisBus_StartFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := NewRedisBus(rdb).Start(ctx, func(string, []byte) {})
	assert.Error(t, err)
}
