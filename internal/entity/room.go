package entity

import (
	"time"
)

type Room struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	ParticipantKey string    `gorm:"uniqueIndex;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	ModifiedAt     time.Time `gorm:"not null"`
}

// Participant links one user to one room. The room is referenced by id only.
type Participant struct {
	ID     int64 `gorm:"primaryKey;autoIncrement"`
	RoomID int64 `gorm:"not null;uniqueIndex:idx_participant_room_user;index"`
	UserID int64 `gorm:"not null;uniqueIndex:idx_participant_room_user;index"`
	User   User  `gorm:"foreignKey:UserID"`
}
