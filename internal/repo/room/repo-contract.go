package room_repo

import (
	"context"
	"time"

	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
)

type RoomRepoContract interface {
	FindRoomByKey(ctx context.Context, participantKey string) (*entity.Room, *app_error.AppError)
	FindRoomByExactParticipants(ctx context.Context, userIDs []int64) (*entity.Room, *app_error.AppError)
	CreateRoomWithParticipants(ctx context.Context, userIDs []int64, now time.Time) (*entity.Room, *app_error.AppError)
	FindRoomByID(ctx context.Context, roomID int64) (*entity.Room, *app_error.AppError)
	FindParticipants(ctx context.Context, roomID int64) ([]*entity.Participant, *app_error.AppError)
	IsParticipant(ctx context.Context, roomID, userID int64) (bool, *app_error.AppError)
	ListRoomsForUser(ctx context.Context, userID int64, offset, limit int) ([]*entity.Room, int64, *app_error.AppError)
	TouchRoom(ctx context.Context, roomID int64, at time.Time) *app_error.AppError
}
