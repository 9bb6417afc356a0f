package websocket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/dtos/chat_dto"
	"github.com/xenn00/chat-core/internal/dtos/user_dto"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/internal/pubsub"
	user_repo "github.com/xenn00/chat-core/internal/repo/user"
	chat_service "github.com/xenn00/chat-core/internal/use-case/chat-case"
	room_service "github.com/xenn00/chat-core/internal/use-case/room-case"
)

const frameTimeout = 10 * time.Second

// WebSocketHandler upgrades authenticated requests and dispatches the frames
// of each session to the chat services.
type WebSocketHandler struct {
	Hub       *Hub
	Chat      chat_service.ChatServiceContract
	Rooms     room_service.RoomServiceContract
	Users     user_repo.UserRepoContract
	Validate  *validator.Validate
	RateLimit RateLimitConfig

	authenticator AuthenticatorFunc
	upgrader      websocket.Upgrader
	connections   *connectionCounter
}

func NewWebSocketHandler(hub *Hub, chat chat_service.ChatServiceContract, rooms room_service.RoomServiceContract, users user_repo.UserRepoContract, authenticator AuthenticatorFunc, allowedOrigins []string) *WebSocketHandler {
	origins := newOriginPolicy(allowedOrigins)
	return &WebSocketHandler{
		Hub:           hub,
		Chat:          chat,
		Rooms:         rooms,
		Users:         users,
		Validate:      validator.New(),
		RateLimit:     DefaultRateLimitConfig(),
		authenticator: authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		connections: newConnectionCounter(),
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.atCapacity() {
		http.Error(w, "server at capacity", http.StatusServiceUnavailable)
		return
	}

	clientIP := h.getClientIP(r)
	release, ok := h.acquireConnection(clientIP)
	if !ok {
		log.Warn().Str("ip", clientIP).Msg("ws: connection limit reached")
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	userID, err := h.authenticateConnection(r)
	if err != nil {
		release()
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	user, appErr := h.Users.FindUserByID(r.Context(), userID)
	if appErr != nil {
		release()
		if app_error.IsNotFound(appErr) {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}
		http.Error(w, appErr.Message, appErr.Code)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already wrote the error response
		release()
		log.Error().Err(err).Int64("userID", userID).Msg("ws: upgrade failed")
		return
	}

	client := NewClient(conn, user_dto.FromEntity(user), clientIP, h.handleFrame)
	client.onClose = release
	if h.RateLimit.Enabled && h.RateLimit.MessagesPerWindow > 0 {
		client.limiter = newFrameLimiter(h.RateLimit.MessagesPerWindow, h.RateLimit.WindowSize)
	}

	h.Hub.Register(client)
}

func (h *WebSocketHandler) handleFrame(c *Client, raw []byte) {
	if c.limiter != nil && !c.limiter.Allow() {
		h.sendError(c, app_error.NewAppError(http.StatusTooManyRequests, "too many messages", "rate-limit"))
		return
	}

	var msg chat_dto.WSIncomingMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(c, app_error.InvalidArgument("invalid frame", "body"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Context(), frameTimeout)
	defer cancel()

	var appErr *app_error.AppError
	switch msg.Type {
	case chat_dto.FrameSendMessage:
		appErr = h.handleSendMessage(ctx, c, msg)
	case chat_dto.FrameGetUsers:
		h.Hub.SendToClient(c, chat_dto.EventOnlineUsers, pubsub.PresenceTopic, h.Hub.Presence.ListOnline())
	case chat_dto.FrameCreateRoom:
		appErr = h.handleCreateRoom(ctx, c, msg)
	case chat_dto.FrameSubscribe:
		appErr = h.handleSubscribe(ctx, c, msg.Topic)
	case chat_dto.FrameUnsubscribe:
		h.Hub.Unsubscribe(c, msg.Topic)
	default:
		appErr = app_error.InvalidArgument(fmt.Sprintf("unknown frame type %q", msg.Type), "type")
	}

	if appErr != nil {
		h.sendError(c, appErr)
	}
}

// The sender is a participant, so the stored message comes back to it as a
// notification; no separate ack is written.
func (h *WebSocketHandler) handleSendMessage(ctx context.Context, c *Client, msg chat_dto.WSIncomingMessage) *app_error.AppError {
	req := chat_dto.SendMessageRequest{
		RoomID:   msg.RoomID,
		Text:     msg.Text,
		MediaURL: msg.MediaURL,
	}
	if err := h.Validate.Struct(req); err != nil {
		return app_error.InvalidArgument(fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	_, appErr := h.Chat.SendMessage(ctx, c.UserID, req)
	return appErr
}

func (h *WebSocketHandler) handleCreateRoom(ctx context.Context, c *Client, msg chat_dto.WSIncomingMessage) *app_error.AppError {
	req := chat_dto.CreateRoomRequest{UserIDs: msg.UserIDs}
	if err := h.Validate.Struct(req); err != nil {
		return app_error.InvalidArgument(fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	resp, appErr := h.Chat.CreateRoom(ctx, c.UserID, req)
	if appErr != nil {
		return appErr
	}

	h.Hub.SendToClient(c, chat_dto.EventRoom, pubsub.RoomTopic(resp.ID), resp)
	return nil
}

// handleSubscribe allows the session's own notification topic, the presence
// topic and the topics of rooms the user participates in.
func (h *WebSocketHandler) handleSubscribe(ctx context.Context, c *Client, topic string) *app_error.AppError {
	switch {
	case topic == pubsub.PresenceTopic, topic == pubsub.UserTopic(c.UserID):
	default:
		roomID, ok := pubsub.ParseRoomTopic(topic)
		if !ok {
			return app_error.InvalidArgument("topic not allowed", "topic")
		}
		if appErr := h.Rooms.RequireParticipant(ctx, roomID, c.UserID); appErr != nil {
			return appErr
		}
	}

	h.Hub.Subscribe(c, topic)
	h.Hub.SendToClient(c, chat_dto.EventSubscribed, topic, map[string]string{"topic": topic})
	return nil
}

func (h *WebSocketHandler) sendError(c *Client, appErr *app_error.AppError) {
	log.Debug().Str("clientID", c.ID).Int("code", appErr.Code).Str("message", appErr.Message).Msg("ws: frame rejected")
	h.Hub.SendToClient(c, chat_dto.EventError, "", errorFrame(appErr))
}
