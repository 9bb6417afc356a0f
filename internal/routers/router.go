package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xenn00/chat-core/internal/middleware"
	chat_service "github.com/xenn00/chat-core/internal/use-case/chat-case"
	room_service "github.com/xenn00/chat-core/internal/use-case/room-case"
	user_service "github.com/xenn00/chat-core/internal/use-case/user-case"
	"github.com/xenn00/chat-core/internal/websocket"
	"github.com/xenn00/chat-core/state"
)

type Services struct {
	Chat  chat_service.ChatServiceContract
	Rooms room_service.RoomServiceContract
	Users user_service.UserServiceContract
}

func NewRouter(state *state.AppState, wsHub *websocket.Hub, wsHandler http.Handler, services Services) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestId)

	r.Handle("/ws", wsHandler)
	HubRouter(r, wsHub)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuth(state.JwtSecret.Public, state.Redis))
		ChatRouter(protected, services.Chat, services.Rooms)
		UserRouter(protected, services.Users, wsHub)
	})
	return r
}
