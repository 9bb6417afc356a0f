package pubsub

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler receives every message published on any topic.
type Handler func(topic string, payload []byte)

type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Bus carries published payloads to the handler given to Start, possibly in
// another process.
type Bus interface {
	Publisher
	Start(ctx context.Context, deliver Handler) error
	Close() error
}

// LocalBus delivers in the publishing goroutine. It serves a single process
// when no Redis is configured.
type LocalBus struct {
	mu      sync.RWMutex
	deliver Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Start(_ context.Context, deliver Handler) error {
	b.mu.Lock()
	b.deliver = deliver
	b.mu.Unlock()
	log.Info().Str("module", "pubsub.local").Msg("in-process bus started")
	return nil
}

func (b *LocalBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	deliver := b.deliver
	b.mu.RUnlock()

	if deliver != nil {
		deliver(topic, payload)
	}
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.deliver = nil
	b.mu.Unlock()
	return nil
}
