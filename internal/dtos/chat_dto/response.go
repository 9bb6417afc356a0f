package chat_dto

import (
	"time"

	"github.com/xenn00/chat-core/internal/dtos/user_dto"
	"github.com/xenn00/chat-core/internal/entity"
)

type MessageResponse struct {
	ID        int64               `json:"id"`
	RoomID    int64               `json:"room_id"`
	Text      string              `json:"text"`
	MediaURL  *string             `json:"media_url,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Author    user_dto.PublicUser `json:"user"`
}

type RoomResponse struct {
	ID           int64                 `json:"id"`
	CreatedAt    time.Time             `json:"created_at"`
	ModifiedAt   time.Time             `json:"modified_at"`
	LastMessage  *MessageResponse      `json:"last_message,omitempty"`
	Participants []user_dto.PublicUser `json:"participants"`
	Created      bool                  `json:"created,omitempty"`
}

type MessagePageResponse struct {
	Messages   []MessageResponse `json:"messages"`
	NextCursor *int64            `json:"next_cursor,omitempty"`
	HasMore    bool              `json:"has_more"`
	Total      int64             `json:"total,omitempty"`
}

type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Total int64          `json:"total"`
}

// NewMessageResponse attaches the resolved author to a stored message.
func NewMessageResponse(msg *entity.Message, author user_dto.PublicUser) MessageResponse {
	return MessageResponse{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		Text:      msg.Text,
		MediaURL:  msg.MediaURL,
		CreatedAt: msg.CreatedAt,
		Author:    author,
	}
}
