package user_handler

import (
	"net/http"

	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/internal/handlers"
	user_service "github.com/xenn00/chat-core/internal/use-case/user-case"
)

type UserHandler struct {
	Service user_service.UserServiceContract
}

func NewUserHandler(service user_service.UserServiceContract) *UserHandler {
	return &UserHandler{
		Service: service,
	}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := handlers.PrincipalID(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.GetUser(r.Context(), userID)
	if appErr != nil {
		return appErr
	}

	handlers.Respond(w, r, http.StatusOK, "user fetch successfully", *resp)
	return nil
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := handlers.PathInt64(r, "userId")
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.GetUser(r.Context(), userID)
	if appErr != nil {
		return appErr
	}

	handlers.Respond(w, r, http.StatusOK, "user fetch successfully", *resp)
	return nil
}

func (h *UserHandler) GetUserByLogin(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	login := r.URL.Query().Get("login")
	if login == "" {
		return app_error.InvalidArgument("login is required", "login")
	}

	resp, appErr := h.Service.GetUserByLogin(r.Context(), login)
	if appErr != nil {
		return appErr
	}

	handlers.Respond(w, r, http.StatusOK, "user fetch successfully", *resp)
	return nil
}
