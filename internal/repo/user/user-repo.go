package user_repo

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/state"
	"gorm.io/gorm"
)

type UserRepo struct {
	AppState *state.AppState
}

func NewUserRepo(appState *state.AppState) UserRepoContract {
	return &UserRepo{
		AppState: appState,
	}
}

func (r *UserRepo) FindUserByID(ctx context.Context, userID int64) (*entity.User, *app_error.AppError) {
	var user entity.User

	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("cannot find user", "user-id")
		}
		log.Error().Err(err).Int64("userID", userID).Msg("failed to fetch user")
		return nil, app_error.Internal("unexpected error occur when fetch user", "db-error")
	}

	return &user, nil
}

func (r *UserRepo) FindUserByLogin(ctx context.Context, login string) (*entity.User, *app_error.AppError) {
	var user entity.User

	if err := r.AppState.DB.WithContext(ctx).Where("login = ?", login).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("cannot find user", "user-login")
		}
		log.Error().Err(err).Str("login", login).Msg("failed to fetch user")
		return nil, app_error.Internal("unexpected error occur when fetch user", "db-error")
	}

	return &user, nil
}

// FindUsersByIDs returns the users that exist; missing ids are simply absent from the map.
func (r *UserRepo) FindUsersByIDs(ctx context.Context, userIDs []int64) (map[int64]*entity.User, *app_error.AppError) {
	found := make(map[int64]*entity.User, len(userIDs))
	if len(userIDs) == 0 {
		return found, nil
	}

	var users []*entity.User
	if err := r.AppState.DB.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch users")
		return nil, app_error.Internal("unexpected error occur when fetch users", "db-error")
	}

	for _, u := range users {
		found[u.ID] = u
	}
	return found, nil
}
