package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/xenn00/chat-core/internal/handlers"
	hub_handler "github.com/xenn00/chat-core/internal/handlers/hub-handler"
	user_handler "github.com/xenn00/chat-core/internal/handlers/user-handler"
	user_service "github.com/xenn00/chat-core/internal/use-case/user-case"
	"github.com/xenn00/chat-core/internal/websocket"
)

func UserRouter(r chi.Router, users user_service.UserServiceContract, wsHub *websocket.Hub) {
	userHandler := user_handler.NewUserHandler(users)
	hubHandler := hub_handler.NewHubHandler(wsHub)

	r.Get("/api/v1/users", handlers.WrapHandler(userHandler.GetUserByLogin))
	r.Get("/api/v1/users/me", handlers.WrapHandler(userHandler.GetMe))
	r.Get("/api/v1/users/online", handlers.WrapHandler(hubHandler.HandleGetOnlineUsers))
	r.Get("/api/v1/users/{userId}", handlers.WrapHandler(userHandler.GetUser))
	r.Get("/api/v1/users/{userId}/status", handlers.WrapHandler(hubHandler.HandleGetUserStatus))
}
