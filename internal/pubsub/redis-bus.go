package pubsub

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DefaultChannelPrefix = "chat:"

// RedisBus fans payloads out through Redis PUBLISH so every process
// subscribed with PSUBSCRIBE sees them.
type RedisBus struct {
	Redis  *redis.Client
	Prefix string

	mu   sync.Mutex
	sub  *redis.PubSub
	done chan struct{}
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{
		Redis:  rdb,
		Prefix: DefaultChannelPrefix,
	}
}

func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.Redis.Publish(ctx, b.Prefix+topic, payload).Err()
}

// Start subscribes to every topic and returns once Redis confirmed the
// subscription. Messages are handed to deliver from a single goroutine, in
// the order Redis sent them.
func (b *RedisBus) Start(ctx context.Context, deliver Handler) error {
	sub := b.Redis.PSubscribe(ctx, b.Prefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to %s*: %w", b.Prefix, err)
	}

	done := make(chan struct{})
	b.mu.Lock()
	b.sub = sub
	b.done = done
	b.mu.Unlock()

	ch := sub.Channel()
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				deliver(strings.TrimPrefix(msg.Channel, b.Prefix), []byte(msg.Payload))
			}
		}
	}()

	log.Info().Str("module", "pubsub.redis").Str("pattern", b.Prefix+"*").Msg("redis bus subscribed")
	return nil
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	sub, done := b.sub, b.done
	b.sub = nil
	b.mu.Unlock()

	if sub == nil {
		return nil
	}
	err := sub.Close()
	<-done
	return err
}
