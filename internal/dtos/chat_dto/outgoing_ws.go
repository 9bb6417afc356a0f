package chat_dto

const (
	EventChatMessage  = "chat_message"
	EventNotification = "notification"
	EventOnlineUsers  = "online_users"
	EventRoom         = "room"
	EventSubscribed   = "subscribed"
	EventError        = "error"
)

type WSOutgoingMessage struct {
	Type      string `json:"type"`
	Topic     string `json:"topic,omitempty"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

type WSError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
