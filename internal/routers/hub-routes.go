package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/xenn00/chat-core/internal/handlers"
	hub_handler "github.com/xenn00/chat-core/internal/handlers/hub-handler"
	"github.com/xenn00/chat-core/internal/websocket"
)

// HubRouter mounts the unauthenticated health and statistics routes.
func HubRouter(r chi.Router, wsHub *websocket.Hub) {
	hubHandler := hub_handler.NewHubHandler(wsHub)

	// Health stats
	r.Get("/api/v1/health", hubHandler.HandleHealth)
	r.Get("/api/v1/stats", handlers.WrapHandler(hubHandler.HandleGetStats))
}
