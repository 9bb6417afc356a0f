package room_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/dtos/chat_dto"
	"github.com/xenn00/chat-core/internal/dtos/user_dto"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
	message_repo "github.com/xenn00/chat-core/internal/repo/message"
	room_repo "github.com/xenn00/chat-core/internal/repo/room"
	user_repo "github.com/xenn00/chat-core/internal/repo/user"
	"github.com/xenn00/chat-core/state"
	"golang.org/x/sync/singleflight"
)

type RoomService struct {
	AppState *state.AppState
	RoomRepo room_repo.RoomRepoContract
	UserRepo user_repo.UserRepoContract
	Messages message_repo.MessageStore
	Now      func() time.Time

	inflight singleflight.Group
}

func NewRoomService(appState *state.AppState, messages message_repo.MessageStore) *RoomService {
	return &RoomService{
		AppState: appState,
		RoomRepo: room_repo.NewRoomRepo(appState),
		UserRepo: user_repo.NewUserRepo(appState),
		Messages: messages,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

type roomResult struct {
	room    *entity.Room
	created bool
}

// FindOrCreateRoom resolves the participant set {requesterID} ∪ otherIDs to
// its single room, creating it when none exists. Concurrent calls for the
// same set share one lookup; only the call that inserted the room reports
// created.
func (s *RoomService) FindOrCreateRoom(ctx context.Context, requesterID int64, otherIDs []int64) (*entity.Room, bool, *app_error.AppError) {
	for _, id := range otherIDs {
		if id <= 0 {
			return nil, false, app_error.InvalidArgument(fmt.Sprintf("invalid user id %d", id), "user_ids")
		}
	}
	ids := entity.NormalizeParticipants(append([]int64{requesterID}, otherIDs...))
	if len(ids) == 0 {
		return nil, false, app_error.InvalidArgument("empty participant set", "user_ids")
	}

	users, appErr := s.UserRepo.FindUsersByIDs(ctx, ids)
	if appErr != nil {
		return nil, false, appErr
	}
	if _, ok := users[requesterID]; !ok {
		return nil, false, app_error.NotFound("cannot find user", "user-id")
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return nil, false, app_error.NotFound(fmt.Sprintf("user %d not found", id), "user_ids")
		}
	}

	key := entity.ParticipantKey(ids)
	leader := false
	v, err, _ := s.inflight.Do(key, func() (any, error) {
		leader = true
		room, created, appErr := s.findOrCreate(context.WithoutCancel(ctx), ids, key)
		if appErr != nil {
			return nil, appErr
		}
		return &roomResult{room: room, created: created}, nil
	})
	if err != nil {
		var appErr *app_error.AppError
		if errors.As(err, &appErr) {
			return nil, false, appErr
		}
		return nil, false, app_error.Internal("failed to resolve room", "room")
	}

	res := v.(*roomResult)
	return res.room, res.created && leader, nil
}

func (s *RoomService) findOrCreate(ctx context.Context, ids []int64, key string) (*entity.Room, bool, *app_error.AppError) {
	room, appErr := s.RoomRepo.FindRoomByKey(ctx, key)
	if appErr == nil {
		return room, false, nil
	}
	if !app_error.IsNotFound(appErr) {
		return nil, false, appErr
	}

	// rooms written before participant_key existed are only reachable by membership
	room, appErr = s.RoomRepo.FindRoomByExactParticipants(ctx, ids)
	if appErr == nil {
		return room, false, nil
	}
	if !app_error.IsNotFound(appErr) {
		return nil, false, appErr
	}

	room, appErr = s.RoomRepo.CreateRoomWithParticipants(ctx, ids, s.Now())
	if appErr == nil {
		return room, true, nil
	}
	if !app_error.IsConflict(appErr) {
		return nil, false, appErr
	}

	log.Debug().Str("participantKey", key).Msg("room created concurrently, returning winner")
	room, appErr = s.RoomRepo.FindRoomByKey(ctx, key)
	if appErr != nil {
		return nil, false, appErr
	}
	return room, false, nil
}

// RequireParticipant fails with NotFound unless the room exists and userID is one of its participants.
func (s *RoomService) RequireParticipant(ctx context.Context, roomID, userID int64) *app_error.AppError {
	if _, appErr := s.RoomRepo.FindRoomByID(ctx, roomID); appErr != nil {
		return appErr
	}
	ok, appErr := s.RoomRepo.IsParticipant(ctx, roomID, userID)
	if appErr != nil {
		return appErr
	}
	if !ok {
		return app_error.NotFound("participant not found", "participant")
	}
	return nil
}

func (s *RoomService) GetRoom(ctx context.Context, viewerID, roomID int64) (*chat_dto.RoomResponse, *app_error.AppError) {
	room, appErr := s.RoomRepo.FindRoomByID(ctx, roomID)
	if appErr != nil {
		return nil, appErr
	}
	return s.RoomView(ctx, room, viewerID)
}

// RoomView renders the room as seen by viewerID: partners without the viewer
// and the latest message. The viewer must be a participant.
func (s *RoomService) RoomView(ctx context.Context, room *entity.Room, viewerID int64) (*chat_dto.RoomResponse, *app_error.AppError) {
	participants, appErr := s.RoomRepo.FindParticipants(ctx, room.ID)
	if appErr != nil {
		return nil, appErr
	}

	authors := make(map[int64]user_dto.PublicUser, len(participants))
	member := false
	for _, p := range participants {
		authors[p.UserID] = user_dto.FromEntity(&p.User)
		if p.UserID == viewerID {
			member = true
		}
	}
	if !member {
		return nil, app_error.NotFound("participant not found", "participant")
	}

	resp := &chat_dto.RoomResponse{
		ID:           room.ID,
		CreatedAt:    room.CreatedAt,
		ModifiedAt:   room.ModifiedAt,
		Participants: ProjectForRoom(participants, &viewerID),
	}

	last, appErr := s.Messages.LastMessage(ctx, room.ID)
	if appErr != nil {
		return nil, appErr
	}
	if last != nil {
		author, ok := authors[last.UserID]
		if !ok {
			u, appErr := s.UserRepo.FindUserByID(ctx, last.UserID)
			if appErr == nil {
				author = user_dto.FromEntity(u)
			} else {
				author = user_dto.PublicUser{ID: last.UserID}
			}
		}
		view := chat_dto.NewMessageResponse(last, author)
		resp.LastMessage = &view
	}

	return resp, nil
}

func (s *RoomService) ListRooms(ctx context.Context, viewerID int64, req chat_dto.ListRoomsRequest) (*chat_dto.RoomListResponse, *app_error.AppError) {
	size := req.Size
	if size <= 0 {
		size = message_repo.DefaultPageSize
	}
	if size > message_repo.MaxPageSize {
		size = message_repo.MaxPageSize
	}
	page := max(req.Page, 0)

	rooms, total, appErr := s.RoomRepo.ListRoomsForUser(ctx, viewerID, page*size, size)
	if appErr != nil {
		return nil, appErr
	}

	resp := &chat_dto.RoomListResponse{
		Rooms: make([]chat_dto.RoomResponse, 0, len(rooms)),
		Page:  page,
		Size:  size,
		Total: total,
	}
	for _, room := range rooms {
		view, appErr := s.RoomView(ctx, room, viewerID)
		if appErr != nil {
			return nil, appErr
		}
		resp.Rooms = append(resp.Rooms, *view)
	}
	return resp, nil
}
