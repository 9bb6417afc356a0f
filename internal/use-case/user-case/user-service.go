package user_service

import (
	"context"

	"github.com/xenn00/chat-core/internal/dtos/user_dto"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/internal/presence"
	user_repo "github.com/xenn00/chat-core/internal/repo/user"
	"github.com/xenn00/chat-core/state"
)

// UserService exposes read-only profiles. Accounts are managed elsewhere.
type UserService struct {
	AppState *state.AppState
	UserRepo user_repo.UserRepoContract
	Presence *presence.Registry
}

func NewUserService(appState *state.AppState, registry *presence.Registry) UserServiceContract {
	return &UserService{
		AppState: appState,
		UserRepo: user_repo.NewUserRepo(appState),
		Presence: registry,
	}
}

func (u *UserService) GetUser(ctx context.Context, userID int64) (*user_dto.UserResponse, *app_error.AppError) {
	user, err := u.UserRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.toResponse(user), nil
}

func (u *UserService) GetUserByLogin(ctx context.Context, login string) (*user_dto.UserResponse, *app_error.AppError) {
	user, err := u.UserRepo.FindUserByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	return u.toResponse(user), nil
}

func (u *UserService) toResponse(user *entity.User) *user_dto.UserResponse {
	resp := &user_dto.UserResponse{PublicUser: user_dto.FromEntity(user)}
	if u.Presence != nil {
		resp.Online = u.Presence.IsOnline(user.ID)
	}
	return resp
}
