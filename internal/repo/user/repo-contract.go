package user_repo

import (
	"context"

	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
)

type UserRepoContract interface {
	FindUserByID(ctx context.Context, userID int64) (*entity.User, *app_error.AppError)
	FindUserByLogin(ctx context.Context, login string) (*entity.User, *app_error.AppError)
	FindUsersByIDs(ctx context.Context, userIDs []int64) (map[int64]*entity.User, *app_error.AppError)
}
