package message_repo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/internal/testfixtures"
	"github.com/xenn00/chat-core/state"
)

type fakeRooms map[int64]bool

func (f fakeRooms) FindRoomByID(_ context.Context, roomID int64) (*entity.Room, *app_error.AppError) {
	if !f[roomID] {
		return nil, app_error.NotFound("room not found", "room-id")
	}
	return &entity.Room{ID: roomID}, nil
}

func setupMongo(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("CHATAPP_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("CHATAPP_TEST_MONGO_URL not set")
	}

	ctx := context.Background()
	client, err := state.ConnectMongo(ctx, uri)
	require.NoError(t, err)

	database := fmt.Sprintf("chat_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_ = client.Database(database).Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store, err := NewMongoStore(ctx, client, database, fakeRooms{1: true, 2: true})
	require.NoError(t, err)
	store.Now = testfixtures.NewClock(time.Time{}).Tick(time.Second)
	return store
}

func TestMongoStore_AppendAndLast(t *testing.T) {
	store := setupMongo(t)
	ctx := context.Background()

	_, appErr := store.Append(ctx, 1, 1, " ", nil)
	require.NotNil(t, appErr)
	assert.Equal(t, 400, appErr.Code)

	_, appErr = store.Append(ctx, 3, 1, "hi", nil)
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.Code)

	first, appErr := store.Append(ctx, 1, 1, "first", nil)
	require.Nil(t, appErr)
	second, appErr := store.Append(ctx, 1, 2, "second", strPtr("/media/x.png"))
	require.Nil(t, appErr)
	assert.Greater(t, second.ID, first.ID)

	last, appErr := store.LastMessage(ctx, 1)
	require.Nil(t, appErr)
	assert.Equal(t, second.ID, last.ID)

	none, appErr := store.LastMessage(ctx, 2)
	require.Nil(t, appErr)
	assert.Nil(t, none)

	urls, appErr := store.MediaURLs(ctx, 1)
	require.Nil(t, appErr)
	assert.Equal(t, []string{"/media/x.png"}, urls)
}

func TestMongoStore_Page(t *testing.T) {
	store := setupMongo(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 4; i++ {
		msg, appErr := store.Append(ctx, 1, 1, "m", nil)
		require.Nil(t, appErr)
		ids = append(ids, msg.ID)
	}

	page, appErr := store.Page(ctx, 1, PageSpec{Limit: 3})
	require.Nil(t, appErr)
	require.Len(t, page.Messages, 3)
	assert.Equal(t, ids[3], page.Messages[0].ID)
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(4), page.Total)

	rest, appErr := store.Page(ctx, 1, PageSpec{Limit: 3, BeforeID: page.NextCursor})
	require.Nil(t, appErr)
	require.Len(t, rest.Messages, 1)
	assert.Equal(t, ids[0], rest.Messages[0].ID)
	assert.False(t, rest.HasMore)
}
