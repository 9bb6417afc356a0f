package chat_handler

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/xenn00/chat-core/internal/dtos/chat_dto"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/internal/handlers"
	chat_service "github.com/xenn00/chat-core/internal/use-case/chat-case"
	room_service "github.com/xenn00/chat-core/internal/use-case/room-case"
)

type ChatHandler struct {
	Validate *validator.Validate
	Service  chat_service.ChatServiceContract
	Rooms    room_service.RoomServiceContract
}

func NewChatHandler(service chat_service.ChatServiceContract, rooms room_service.RoomServiceContract) *ChatHandler {
	return &ChatHandler{
		Validate: validator.New(),
		Service:  service,
		Rooms:    rooms,
	}
}

// CreateRoom answers 201 when the room was created and 200 when the
// participant set already had one.
func (h *ChatHandler) CreateRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.CreateRoomRequest
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}

	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	userID, appErr := handlers.PrincipalID(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.CreateRoom(r.Context(), userID, req)
	if appErr != nil {
		return appErr
	}

	if resp.Created {
		handlers.Respond(w, r, http.StatusCreated, "room created successfully", *resp)
		return nil
	}
	handlers.Respond(w, r, http.StatusOK, "room found", *resp)
	return nil
}

func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := handlers.PrincipalID(r)
	if appErr != nil {
		return appErr
	}

	var req chat_dto.ListRoomsRequest
	if req.Page, appErr = handlers.QueryInt(r, "page", 0); appErr != nil {
		return appErr
	}
	if req.Size, appErr = handlers.QueryInt(r, "size", 0); appErr != nil {
		return appErr
	}
	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	resp, appErr := h.Rooms.ListRooms(r.Context(), userID, req)
	if appErr != nil {
		return appErr
	}

	handlers.Respond(w, r, http.StatusOK, "rooms fetch successfully", *resp)
	return nil
}

func (h *ChatHandler) GetRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := handlers.PrincipalID(r)
	if appErr != nil {
		return appErr
	}

	roomID, appErr := handlers.PathInt64(r, "roomId")
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Rooms.GetRoom(r.Context(), userID, roomID)
	if appErr != nil {
		return appErr
	}

	handlers.Respond(w, r, http.StatusOK, "room fetch successfully", *resp)
	return nil
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := handlers.PrincipalID(r)
	if appErr != nil {
		return appErr
	}

	roomID, appErr := handlers.PathInt64(r, "roomId")
	if appErr != nil {
		return appErr
	}

	var req chat_dto.GetMessagesRequest
	if req.Page, appErr = handlers.QueryInt(r, "page", 0); appErr != nil {
		return appErr
	}
	if req.Size, appErr = handlers.QueryInt(r, "size", 0); appErr != nil {
		return appErr
	}
	if r.URL.Query().Has("before_id") {
		beforeID, appErr := handlers.QueryInt(r, "before_id", 0)
		if appErr != nil {
			return appErr
		}
		cursor := int64(beforeID)
		req.BeforeID = &cursor
	}

	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	resp, appErr := h.Service.GetMessages(r.Context(), userID, roomID, req)
	if appErr != nil {
		return appErr
	}

	handlers.Respond(w, r, http.StatusOK, "messages fetch successfully", *resp)
	return nil
}

func (h *ChatHandler) GetMedia(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := handlers.PrincipalID(r)
	if appErr != nil {
		return appErr
	}

	roomID, appErr := handlers.PathInt64(r, "roomId")
	if appErr != nil {
		return appErr
	}

	urls, appErr := h.Service.GetMediaURLs(r.Context(), userID, roomID)
	if appErr != nil {
		return appErr
	}

	handlers.Respond(w, r, http.StatusOK, "media fetch successfully", urls)
	return nil
}

// SendMessage is the HTTP twin of the send_message socket frame.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.SendMessageRequest
	defer r.Body.Close()

	roomID, appErr := handlers.PathInt64(r, "roomId")
	if appErr != nil {
		return appErr
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}
	req.RoomID = roomID

	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	userID, appErr := handlers.PrincipalID(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.SendMessage(r.Context(), userID, req)
	if appErr != nil {
		return appErr
	}

	handlers.Respond(w, r, http.StatusCreated, "message sent successfully", *resp)
	return nil
}
