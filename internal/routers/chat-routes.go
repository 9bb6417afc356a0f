package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/xenn00/chat-core/internal/handlers"
	chat_handler "github.com/xenn00/chat-core/internal/handlers/chat-handler"
	chat_service "github.com/xenn00/chat-core/internal/use-case/chat-case"
	room_service "github.com/xenn00/chat-core/internal/use-case/room-case"
)

func ChatRouter(r chi.Router, chat chat_service.ChatServiceContract, rooms room_service.RoomServiceContract) {
	chatHandler := chat_handler.NewChatHandler(chat, rooms)

	r.Post("/api/v1/rooms", handlers.WrapHandler(chatHandler.CreateRoom))
	r.Get("/api/v1/rooms", handlers.WrapHandler(chatHandler.ListRooms))
	r.Get("/api/v1/rooms/{roomId}", handlers.WrapHandler(chatHandler.GetRoom))
	r.Get("/api/v1/rooms/{roomId}/messages", handlers.WrapHandler(chatHandler.GetMessages))
	r.Post("/api/v1/rooms/{roomId}/messages", handlers.WrapHandler(chatHandler.SendMessage))
	r.Get("/api/v1/rooms/{roomId}/media", handlers.WrapHandler(chatHandler.GetMedia))
}
