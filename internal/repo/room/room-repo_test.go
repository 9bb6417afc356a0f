package room_repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-core/internal/entity"
	"github.com/xenn00/chat-core/internal/testfixtures"
)

func setup(t *testing.T) (*RoomRepo, context.Context) {
	t.Helper()
	appState := testfixtures.NewSQLiteState(t)
	testfixtures.SeedUsers(t, appState, 1, 2, 3, 4)
	return &RoomRepo{AppState: appState}, context.Background()
}

func TestCreateRoomWithParticipants(t *testing.T) {
	repo, ctx := setup(t)
	now := testfixtures.ReferenceTime()

	room, err := repo.CreateRoomWithParticipants(ctx, []int64{3, 1, 1}, now)
	require.Nil(t, err)
	assert.NotZero(t, room.ID)
	assert.Equal(t, "1,3", room.ParticipantKey)
	assert.True(t, room.CreatedAt.Equal(now))

	participants, err := repo.FindParticipants(ctx, room.ID)
	require.Nil(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, int64(1), participants[0].UserID)
	assert.Equal(t, "user1", participants[0].User.Login)
	assert.Equal(t, int64(3), participants[1].UserID)
}

func TestCreateRoomWithParticipants_DuplicateIsConflict(t *testing.T) {
	repo, ctx := setup(t)
	now := testfixtures.ReferenceTime()

	_, err := repo.CreateRoomWithParticipants(ctx, []int64{1, 2}, now)
	require.Nil(t, err)

	_, err = repo.CreateRoomWithParticipants(ctx, []int64{2, 1}, now)
	require.NotNil(t, err)
	assert.Equal(t, 409, err.Code)

	var rooms int64
	require.NoError(t, repo.AppState.DB.Model(&entity.Room{}).Count(&rooms).Error)
	assert.Equal(t, int64(1), rooms)

	var participants int64
	require.NoError(t, repo.AppState.DB.Model(&entity.Participant{}).Count(&participants).Error)
	assert.Equal(t, int64(2), participants)
}

func TestCreateRoomWithParticipants_Empty(t *testing.T) {
	repo, ctx := setup(t)

	_, err := repo.CreateRoomWithParticipants(ctx, nil, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, 400, err.Code)
}

func TestFindRoomByKey(t *testing.T) {
	repo, ctx := setup(t)
	created, err := repo.CreateRoomWithParticipants(ctx, []int64{1, 2}, testfixtures.ReferenceTime())
	require.Nil(t, err)

	found, err := repo.FindRoomByKey(ctx, entity.ParticipantKey([]int64{2, 1}))
	require.Nil(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindRoomByKey(ctx, "1,2,3")
	require.NotNil(t, err)
	assert.Equal(t, 404, err.Code)
}

func TestFindRoomByExactParticipants(t *testing.T) {
	repo, ctx := setup(t)
	now := testfixtures.ReferenceTime()

	pair, err := repo.CreateRoomWithParticipants(ctx, []int64{1, 2}, now)
	require.Nil(t, err)
	trio, err := repo.CreateRoomWithParticipants(ctx, []int64{1, 2, 3}, now)
	require.Nil(t, err)

	found, err := repo.FindRoomByExactParticipants(ctx, []int64{2, 1})
	require.Nil(t, err)
	assert.Equal(t, pair.ID, found.ID)

	found, err = repo.FindRoomByExactParticipants(ctx, []int64{3, 2, 1})
	require.Nil(t, err)
	assert.Equal(t, trio.ID, found.ID)

	// a subset or superset of an existing room never matches
	_, err = repo.FindRoomByExactParticipants(ctx, []int64{1})
	require.NotNil(t, err)
	assert.Equal(t, 404, err.Code)

	_, err = repo.FindRoomByExactParticipants(ctx, []int64{1, 2, 3, 4})
	require.NotNil(t, err)
	assert.Equal(t, 404, err.Code)
}

func TestFindRoomByID_NotFound(t *testing.T) {
	repo, ctx := setup(t)

	_, err := repo.FindRoomByID(ctx, 42)
	require.NotNil(t, err)
	assert.Equal(t, 404, err.Code)
}

func TestIsParticipant(t *testing.T) {
	repo, ctx := setup(t)
	room, err := repo.CreateRoomWithParticipants(ctx, []int64{1, 2}, testfixtures.ReferenceTime())
	require.Nil(t, err)

	ok, err := repo.IsParticipant(ctx, room.ID, 2)
	require.Nil(t, err)
	assert.True(t, ok)

	ok, err = repo.IsParticipant(ctx, room.ID, 3)
	require.Nil(t, err)
	assert.False(t, ok)
}

func TestListRoomsForUser_OrderedByModified(t *testing.T) {
	repo, ctx := setup(t)
	now := testfixtures.ReferenceTime()

	first, err := repo.CreateRoomWithParticipants(ctx, []int64{1, 2}, now)
	require.Nil(t, err)
	second, err := repo.CreateRoomWithParticipants(ctx, []int64{1, 3}, now.Add(time.Minute))
	require.Nil(t, err)
	_, err = repo.CreateRoomWithParticipants(ctx, []int64{2, 3}, now)
	require.Nil(t, err)

	rooms, total, err := repo.ListRoomsForUser(ctx, 1, 0, 10)
	require.Nil(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rooms, 2)
	assert.Equal(t, second.ID, rooms[0].ID)
	assert.Equal(t, first.ID, rooms[1].ID)

	require.Nil(t, repo.TouchRoom(ctx, first.ID, now.Add(time.Hour)))

	rooms, _, err = repo.ListRoomsForUser(ctx, 1, 0, 1)
	require.Nil(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, first.ID, rooms[0].ID)
}
