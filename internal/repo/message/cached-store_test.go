package message_repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
)

func setupCached(t *testing.T) (*CachedStore, *gormFixture, *miniredis.Miniredis) {
	t.Helper()
	f := setupGorm(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewCachedStore(f.store, rdb, time.Minute), f, mr
}

func TestCachedStore_AppendWritesThrough(t *testing.T) {
	store, f, mr := setupCached(t)
	ctx := context.Background()

	msg, appErr := store.Append(ctx, f.room.ID, 1, "hi", nil)
	require.Nil(t, appErr)

	assert.True(t, mr.Exists(LastMessageKey(f.room.ID)))
	assert.Equal(t, time.Minute, mr.TTL(LastMessageKey(f.room.ID)))

	last, appErr := store.LastMessage(ctx, f.room.ID)
	require.Nil(t, appErr)
	assert.Equal(t, msg.ID, last.ID)
	assert.Equal(t, "hi", last.Text)
}

func TestCachedStore_ServesFromCache(t *testing.T) {
	store, f, mr := setupCached(t)
	ctx := context.Background()

	msg, appErr := store.Append(ctx, f.room.ID, 1, "cached", nil)
	require.Nil(t, appErr)

	// rows removed behind the cache's back are still answered from Redis
	require.NoError(t, f.store.AppState.DB.Where("id = ?", msg.ID).Delete(&entity.Message{}).Error)

	last, appErr := store.LastMessage(ctx, f.room.ID)
	require.Nil(t, appErr)
	require.NotNil(t, last)
	assert.Equal(t, "cached", last.Text)

	mr.FlushAll()
	last, appErr = store.LastMessage(ctx, f.room.ID)
	require.Nil(t, appErr)
	assert.Nil(t, last)
}

func TestCachedStore_MissFillsCache(t *testing.T) {
	store, f, mr := setupCached(t)
	ctx := context.Background()

	msg, appErr := f.store.Append(ctx, f.room.ID, 2, "direct", nil)
	require.Nil(t, appErr)
	assert.False(t, mr.Exists(LastMessageKey(f.room.ID)))

	last, appErr := store.LastMessage(ctx, f.room.ID)
	require.Nil(t, appErr)
	assert.Equal(t, msg.ID, last.ID)
	assert.True(t, mr.Exists(LastMessageKey(f.room.ID)))
}

func TestCachedStore_KeepsNewerCachedMessage(t *testing.T) {
	store, f, _ := setupCached(t)
	ctx := context.Background()

	older := &entity.Message{ID: 1, RoomID: f.room.ID, CreatedAt: time.Unix(100, 0).UTC()}
	newer := &entity.Message{ID: 2, RoomID: f.room.ID, Text: "newer", CreatedAt: time.Unix(200, 0).UTC()}

	require.NoError(t, store.writeThrough(ctx, newer))
	require.NoError(t, store.writeThrough(ctx, older))

	last, appErr := store.LastMessage(ctx, f.room.ID)
	require.Nil(t, appErr)
	assert.Equal(t, "newer", last.Text)
}

// interleavedStore runs onLast right after the wrapped LastMessage read, so
// a concurrent append can land between the read and the cache fill.
type interleavedStore struct {
	MessageStore
	onLast func()
}

func (s *interleavedStore) LastMessage(ctx context.Context, roomID int64) (*entity.Message, *app_error.AppError) {
	msg, appErr := s.MessageStore.LastMessage(ctx, roomID)
	if hook := s.onLast; hook != nil {
		s.onLast = nil
		hook()
	}
	return msg, appErr
}

func TestCachedStore_MissFillDoesNotOverwriteNewerAppend(t *testing.T) {
	f := setupGorm(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &interleavedStore{MessageStore: f.store}
	store := NewCachedStore(inner, rdb, time.Minute)

	first, appErr := f.store.Append(ctx, f.room.ID, 1, "first", nil)
	require.Nil(t, appErr)

	var second *entity.Message
	inner.onLast = func() {
		second, appErr = store.Append(ctx, f.room.ID, 2, "second", nil)
		require.Nil(t, appErr)
	}

	// this read saw "first" before "second" was appended
	stale, appErr := store.LastMessage(ctx, f.room.ID)
	require.Nil(t, appErr)
	assert.Equal(t, first.ID, stale.ID)

	last, appErr := store.LastMessage(ctx, f.room.ID)
	require.Nil(t, appErr)
	require.NotNil(t, second)
	assert.Equal(t, second.ID, last.ID)
	assert.Equal(t, "second", last.Text)
}

func TestCachedStore_RedisDownFallsBack(t *testing.T) {
	store, f, mr := setupCached(t)
	ctx := context.Background()
	mr.Close()

	msg, appErr := store.Append(ctx, f.room.ID, 1, "still stored", nil)
	require.Nil(t, appErr)

	last, appErr := store.LastMessage(ctx, f.room.ID)
	require.Nil(t, appErr)
	assert.Equal(t, msg.ID, last.ID)
}
