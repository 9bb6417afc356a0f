package room_service

import (
	"slices"

	"github.com/xenn00/chat-core/internal/dtos/user_dto"
	"github.com/xenn00/chat-core/internal/entity"
)

// ProjectForRoom maps participants to their public user projection, dropping
// excludeUserID when given. The result is deduplicated and sorted by user id.
func ProjectForRoom(participants []*entity.Participant, excludeUserID *int64) []user_dto.PublicUser {
	seen := make(map[int64]struct{}, len(participants))
	out := make([]user_dto.PublicUser, 0, len(participants))

	for _, p := range participants {
		if p == nil {
			continue
		}
		if excludeUserID != nil && p.UserID == *excludeUserID {
			continue
		}
		if _, dup := seen[p.UserID]; dup {
			continue
		}
		seen[p.UserID] = struct{}{}

		view := user_dto.FromEntity(&p.User)
		view.ID = p.UserID
		out = append(out, view)
	}

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
