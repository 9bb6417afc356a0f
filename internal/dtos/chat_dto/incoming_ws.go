package chat_dto

const (
	FrameSendMessage = "send_message"
	FrameGetUsers    = "get_users"
	FrameCreateRoom  = "create_room"
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
)

type WSIncomingMessage struct {
	Type     string  `json:"type"`
	RoomID   int64   `json:"roomId,omitempty"`
	Text     string  `json:"text,omitempty"`
	MediaURL *string `json:"mediaUrl,omitempty"`
	UserIDs  []int64 `json:"userIds,omitempty"`
	Topic    string  `json:"topic,omitempty"`
}
