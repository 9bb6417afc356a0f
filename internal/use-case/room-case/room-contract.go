package room_service

import (
	"context"

	"github.com/xenn00/chat-core/internal/dtos/chat_dto"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
)

type RoomServiceContract interface {
	FindOrCreateRoom(ctx context.Context, requesterID int64, otherIDs []int64) (*entity.Room, bool, *app_error.AppError)
	GetRoom(ctx context.Context, viewerID, roomID int64) (*chat_dto.RoomResponse, *app_error.AppError)
	ListRooms(ctx context.Context, viewerID int64, req chat_dto.ListRoomsRequest) (*chat_dto.RoomListResponse, *app_error.AppError)
	RoomView(ctx context.Context, room *entity.Room, viewerID int64) (*chat_dto.RoomResponse, *app_error.AppError)
	RequireParticipant(ctx context.Context, roomID, userID int64) *app_error.AppError
}
