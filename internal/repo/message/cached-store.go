package message_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/internal/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CachedStore keeps the last message of each room in Redis in front of
// another MessageStore. Redis failures degrade to the wrapped store.
type CachedStore struct {
	MessageStore
	Redis *redis.Client
	TTL   time.Duration
}

func NewCachedStore(inner MessageStore, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		MessageStore: inner,
		Redis:        rdb,
		TTL:          ttl,
	}
}

func LastMessageKey(roomID int64) string {
	return fmt.Sprintf("room:%d:last_message", roomID)
}

func (s *CachedStore) Append(ctx context.Context, roomID, authorID int64, text string, mediaURL *string) (*entity.Message, *app_error.AppError) {
	msg, appErr := s.MessageStore.Append(ctx, roomID, authorID, text, mediaURL)
	if appErr != nil {
		return nil, appErr
	}

	if err := s.writeThrough(ctx, msg); err != nil {
		log.Warn().Err(err).Int64("roomID", roomID).Msg("failed to refresh last message cache")
		_ = utils.DeleteCacheData(ctx, s.Redis, LastMessageKey(roomID))
	}
	return msg, nil
}

// writeThrough replaces the cached entry unless it already holds a newer
// message. Appends and cache-miss fills both go through it, so a slow fill
// never overwrites a message appended after the fill read the store.
func (s *CachedStore) writeThrough(ctx context.Context, msg *entity.Message) error {
	key := LastMessageKey(msg.RoomID)
	return s.Redis.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var cached entity.Message
			if json.Unmarshal(raw, &cached) == nil && newerThan(&cached, msg) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return utils.SetCacheData(ctx, pipe, key, msg, s.TTL)
		})
		return err
	}, key)
}

func (s *CachedStore) LastMessage(ctx context.Context, roomID int64) (*entity.Message, *app_error.AppError) {
	key := LastMessageKey(roomID)

	cached, appErr := utils.GetCacheData[entity.Message](ctx, s.Redis, key)
	if appErr != nil {
		log.Warn().Str("key", key).Msg("last message cache unavailable")
	} else if cached != nil {
		return cached, nil
	}

	msg, appErr := s.MessageStore.LastMessage(ctx, roomID)
	if appErr != nil || msg == nil {
		return msg, appErr
	}

	if err := s.writeThrough(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache last message")
	}
	return msg, nil
}

func newerThan(a, b *entity.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
