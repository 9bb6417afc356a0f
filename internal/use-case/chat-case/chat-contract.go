package chat_service

import (
	"context"

	"github.com/xenn00/chat-core/internal/dtos/chat_dto"
	app_error "github.com/xenn00/chat-core/internal/errors"
)

type ChatServiceContract interface {
	SendMessage(ctx context.Context, principalID int64, req chat_dto.SendMessageRequest) (*chat_dto.MessageResponse, *app_error.AppError)
	CreateRoom(ctx context.Context, principalID int64, req chat_dto.CreateRoomRequest) (*chat_dto.RoomResponse, *app_error.AppError)
	GetMessages(ctx context.Context, principalID, roomID int64, req chat_dto.GetMessagesRequest) (*chat_dto.MessagePageResponse, *app_error.AppError)
	GetMediaURLs(ctx context.Context, principalID, roomID int64) ([]string, *app_error.AppError)
}
