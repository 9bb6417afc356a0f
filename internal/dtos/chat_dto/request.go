package chat_dto

type CreateRoomRequest struct {
	UserIDs []int64 `json:"user_ids" validate:"dive,gt=0"`
}

type SendMessageRequest struct {
	RoomID   int64   `json:"roomId" validate:"required,gt=0"`
	Text     string  `json:"text" validate:"max=4000"`
	MediaURL *string `json:"mediaUrl,omitempty" validate:"omitempty,max=2048"`
}

type GetMessagesRequest struct {
	Page     int    `query:"page" validate:"omitempty,min=0"`
	Size     int    `query:"size" validate:"omitempty,min=1,max=100"`
	BeforeID *int64 `query:"before_id" validate:"omitempty,gt=0"` // cursor pagination
}

type ListRoomsRequest struct {
	Page int `query:"page" validate:"omitempty,min=0"`
	Size int `query:"size" validate:"omitempty,min=1,max=100"`
}
