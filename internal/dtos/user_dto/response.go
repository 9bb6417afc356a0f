package user_dto

import "github.com/xenn00/chat-core/internal/entity"

// PublicUser is the display-safe projection of a user.
type PublicUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

func FromEntity(u *entity.User) PublicUser {
	return PublicUser{
		ID:        u.ID,
		Login:     u.Login,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageURL:  u.ImageURL,
	}
}

type UserResponse struct {
	PublicUser
	Online bool `json:"online"`
}
