package presence

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/dtos/user_dto"
)

// Registry is the process-wide table of connected users. It is built empty
// at startup and holds nothing across restarts.
type Registry struct {
	mu     sync.RWMutex
	users  map[int64]user_dto.PublicUser
	closed bool
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[int64]user_dto.PublicUser),
	}
}

// Connect records the user as online, replacing any previous entry.
func (r *Registry) Connect(user user_dto.PublicUser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.users[user.ID] = user
	log.Debug().Str("module", "presence.registry").Int64("userID", user.ID).Msg("user online")
}

// Disconnect removes the user. Unknown ids are ignored.
func (r *Registry) Disconnect(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return
	}
	delete(r.users, userID)
	log.Debug().Str("module", "presence.registry").Int64("userID", userID).Msg("user offline")
}

// ListOnline returns a snapshot sorted by user id.
func (r *Registry) ListOnline() []user_dto.PublicUser {
	r.mu.RLock()
	out := make([]user_dto.PublicUser, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b user_dto.PublicUser) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Close drops every entry; later connects are ignored.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	clear(r.users)
	log.Info().Str("module", "presence.registry").Msg("registry closed")
}
