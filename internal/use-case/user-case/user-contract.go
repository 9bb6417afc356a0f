package user_service

import (
	"context"

	"github.com/xenn00/chat-core/internal/dtos/user_dto"
	app_error "github.com/xenn00/chat-core/internal/errors"
)

type UserServiceContract interface {
	GetUser(ctx context.Context, userID int64) (*user_dto.UserResponse, *app_error.AppError)
	GetUserByLogin(ctx context.Context, login string) (*user_dto.UserResponse, *app_error.AppError)
}
