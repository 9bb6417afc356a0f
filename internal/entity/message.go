package entity

import (
	"time"
)

type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" bson:"_id"`
	RoomID    int64     `gorm:"not null;index:idx_message_room_created,priority:1" bson:"room_id"`
	UserID    int64     `gorm:"not null;index" bson:"user_id"`
	Text      string    `bson:"text"`
	MediaURL  *string   `bson:"media_url,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false;index:idx_message_room_created,priority:2" bson:"created_at"`
}

func (m *Message) HasMedia() bool {
	return m.MediaURL != nil && *m.MediaURL != ""
}
