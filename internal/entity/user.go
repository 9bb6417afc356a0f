package entity

import (
	"time"
)

// User is owned by the account service; this core only reads it.
type User struct {
	ID        int64     `gorm:"primaryKey"`
	Login     string    `gorm:"uniqueIndex;not null"`
	FirstName string
	LastName  string
	Email     string    `gorm:"uniqueIndex"`
	ImageURL  string
	Activated bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
