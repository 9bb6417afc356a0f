package room_service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-core/internal/dtos/chat_dto"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
	message_repo "github.com/xenn00/chat-core/internal/repo/message"
	room_repo "github.com/xenn00/chat-core/internal/repo/room"
	"github.com/xenn00/chat-core/internal/testfixtures"
	"github.com/xenn00/chat-core/state"
)

func setup(t *testing.T) (*RoomService, *state.AppState) {
	t.Helper()
	appState := testfixtures.NewSQLiteState(t)
	testfixtures.SeedUsers(t, appState, 1, 2, 3, 4)

	clock := testfixtures.NewClock(time.Time{})
	messages := message_repo.NewGormStore(appState)
	messages.Now = clock.Tick(time.Second)

	svc := NewRoomService(appState, messages)
	svc.Now = clock.Now
	return svc, appState
}

func countRooms(t *testing.T, appState *state.AppState) int64 {
	t.Helper()
	var n int64
	require.NoError(t, appState.DB.Model(&entity.Room{}).Count(&n).Error)
	return n
}

func TestFindOrCreateRoom_SameSetSameRoom(t *testing.T) {
	svc, appState := setup(t)
	ctx := context.Background()

	room, created, appErr := svc.FindOrCreateRoom(ctx, 1, []int64{2, 3})
	require.Nil(t, appErr)
	assert.True(t, created)

	inputs := [][]int64{{3, 2}, {2, 3, 3}, {1, 2, 3}, {3, 1, 2, 2}}
	for _, others := range inputs {
		again, created, appErr := svc.FindOrCreateRoom(ctx, 1, others)
		require.Nil(t, appErr)
		assert.False(t, created)
		assert.Equal(t, room.ID, again.ID)
	}
	assert.Equal(t, int64(1), countRooms(t, appState))
}

func TestFindOrCreateRoom_CallerIndependent(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	first, _, appErr := svc.FindOrCreateRoom(ctx, 1, []int64{2})
	require.Nil(t, appErr)
	second, created, appErr := svc.FindOrCreateRoom(ctx, 2, []int64{1})
	require.Nil(t, appErr)

	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestFindOrCreateRoom_DistinctSetsDistinctRooms(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	pair, _, appErr := svc.FindOrCreateRoom(ctx, 1, []int64{2})
	require.Nil(t, appErr)
	trio, _, appErr := svc.FindOrCreateRoom(ctx, 1, []int64{2, 3})
	require.Nil(t, appErr)
	solo, _, appErr := svc.FindOrCreateRoom(ctx, 1, nil)
	require.Nil(t, appErr)

	assert.NotEqual(t, pair.ID, trio.ID)
	assert.NotEqual(t, pair.ID, solo.ID)
	assert.NotEqual(t, trio.ID, solo.ID)
	assert.Equal(t, "1", solo.ParticipantKey)
}

func TestFindOrCreateRoom_Errors(t *testing.T) {
	svc, appState := setup(t)
	ctx := context.Background()

	_, _, appErr := svc.FindOrCreateRoom(ctx, 99, []int64{1})
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.Code)
	assert.Equal(t, "user-id", appErr.Field)

	_, _, appErr = svc.FindOrCreateRoom(ctx, 1, []int64{2, 77})
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.Code)

	_, _, appErr = svc.FindOrCreateRoom(ctx, 1, []int64{-2})
	require.NotNil(t, appErr)
	assert.Equal(t, 400, appErr.Code)

	assert.Zero(t, countRooms(t, appState))
}

func TestFindOrCreateRoom_ConcurrentCallersConverge(t *testing.T) {
	appState := testfixtures.NewSQLiteState(t)
	testfixtures.SeedUsers(t, appState, 1, 2, 3)
	messages := message_repo.NewGormStore(appState)

	// two services stand in for two processes sharing one database
	services := []*RoomService{NewRoomService(appState, messages), NewRoomService(appState, messages)}

	const callers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[int64]struct{}{}
		errs    []*app_error.AppError
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			svc := services[i%len(services)]
			requester := int64(i%3 + 1)
			room, isNew, appErr := svc.FindOrCreateRoom(context.Background(), requester, []int64{1, 2, 3})

			mu.Lock()
			defer mu.Unlock()
			if appErr != nil {
				errs = append(errs, appErr)
				return
			}
			ids[room.ID] = struct{}{}
			if isNew {
				created++
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
	assert.Equal(t, int64(1), countRooms(t, appState))
}

type racingRoomRepo struct {
	room_repo.RoomRepoContract
	once sync.Once
}

// CreateRoomWithParticipants lets a competing writer win before the real insert.
func (r *racingRoomRepo) CreateRoomWithParticipants(ctx context.Context, ids []int64, now time.Time) (*entity.Room, *app_error.AppError) {
	r.once.Do(func() {
		_, _ = r.RoomRepoContract.CreateRoomWithParticipants(ctx, ids, now)
	})
	return r.RoomRepoContract.CreateRoomWithParticipants(ctx, ids, now)
}

func TestFindOrCreateRoom_LostRaceReturnsWinner(t *testing.T) {
	svc, appState := setup(t)
	svc.RoomRepo = &racingRoomRepo{RoomRepoContract: room_repo.NewRoomRepo(appState)}

	room, created, appErr := svc.FindOrCreateRoom(context.Background(), 1, []int64{2})
	require.Nil(t, appErr)
	assert.False(t, created)
	assert.Equal(t, "1,2", room.ParticipantKey)
	assert.Equal(t, int64(1), countRooms(t, appState))
}

func TestFindOrCreateRoom_LegacyRoomWithoutKey(t *testing.T) {
	svc, appState := setup(t)
	ctx := context.Background()

	legacy := &entity.Room{ParticipantKey: "legacy-1", CreatedAt: testfixtures.ReferenceTime(), ModifiedAt: testfixtures.ReferenceTime()}
	require.NoError(t, appState.DB.Create(legacy).Error)
	require.NoError(t, appState.DB.Omit("User").Create([]*entity.Participant{
		{RoomID: legacy.ID, UserID: 1},
		{RoomID: legacy.ID, UserID: 4},
	}).Error)

	room, created, appErr := svc.FindOrCreateRoom(ctx, 4, []int64{1})
	require.Nil(t, appErr)
	assert.False(t, created)
	assert.Equal(t, legacy.ID, room.ID)
}

func TestGetRoom_ViewExcludesViewer(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	room, _, appErr := svc.FindOrCreateRoom(ctx, 1, []int64{2, 3})
	require.Nil(t, appErr)

	view, appErr := svc.GetRoom(ctx, 1, room.ID)
	require.Nil(t, appErr)
	assert.Nil(t, view.LastMessage)
	require.Len(t, view.Participants, 2)
	assert.Equal(t, int64(2), view.Participants[0].ID)
	assert.Equal(t, int64(3), view.Participants[1].ID)

	_, appErr = svc.Messages.Append(ctx, room.ID, 2, "hello", nil)
	require.Nil(t, appErr)

	view, appErr = svc.GetRoom(ctx, 3, room.ID)
	require.Nil(t, appErr)
	require.NotNil(t, view.LastMessage)
	assert.Equal(t, "hello", view.LastMessage.Text)
	assert.Equal(t, "user2", view.LastMessage.Author.Login)
}

func TestGetRoom_NonParticipant(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	room, _, appErr := svc.FindOrCreateRoom(ctx, 1, []int64{2})
	require.Nil(t, appErr)

	_, appErr = svc.GetRoom(ctx, 4, room.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, 404, appErr.Code)
	assert.Equal(t, "participant not found", appErr.Message)

	assert.NotNil(t, svc.RequireParticipant(ctx, room.ID, 4))
	assert.Nil(t, svc.RequireParticipant(ctx, room.ID, 2))
	assert.True(t, app_error.IsNotFound(svc.RequireParticipant(ctx, 999, 1)))
}

func TestListRooms(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, _, appErr := svc.FindOrCreateRoom(ctx, 1, []int64{2})
	require.Nil(t, appErr)
	_, _, appErr = svc.FindOrCreateRoom(ctx, 1, []int64{3})
	require.Nil(t, appErr)
	_, _, appErr = svc.FindOrCreateRoom(ctx, 2, []int64{3})
	require.Nil(t, appErr)

	list, appErr := svc.ListRooms(ctx, 1, chat_dto.ListRoomsRequest{})
	require.Nil(t, appErr)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, message_repo.DefaultPageSize, list.Size)
	require.Len(t, list.Rooms, 2)
	for _, room := range list.Rooms {
		require.Len(t, room.Participants, 1)
		assert.NotEqual(t, int64(1), room.Participants[0].ID)
	}

	paged, appErr := svc.ListRooms(ctx, 1, chat_dto.ListRoomsRequest{Page: 1, Size: 1})
	require.Nil(t, appErr)
	assert.Len(t, paged.Rooms, 1)
	assert.Equal(t, 1, paged.Page)
}
