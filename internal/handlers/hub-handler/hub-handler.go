package hub_handler

import (
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/internal/handlers"
	"github.com/xenn00/chat-core/internal/websocket"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type HubHandler struct {
	Hub *websocket.Hub
}

func NewHubHandler(hub *websocket.Hub) *HubHandler {
	return &HubHandler{
		Hub: hub,
	}
}

func (h *HubHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "websocket-server",
	})
}

func (h *HubHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	handlers.Respond(w, r, http.StatusOK, "get websocket stats", h.Hub.GetHubStats())
	return nil
}

func (h *HubHandler) HandleGetOnlineUsers(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	handlers.Respond(w, r, http.StatusOK, "get online users", h.Hub.Presence.ListOnline())
	return nil
}

// HandleGetUserStatus reports presence and the number of sessions this node
// holds for the user.
func (h *HubHandler) HandleGetUserStatus(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := handlers.PathInt64(r, "userId")
	if appErr != nil {
		return appErr
	}

	clients := h.Hub.GetUserClients(userID)
	resp := map[string]any{
		"user_id":        userID,
		"online":         h.Hub.Presence.IsOnline(userID),
		"active_clients": len(clients),
	}

	handlers.Respond(w, r, http.StatusOK, "successful get user status", resp)
	return nil
}
