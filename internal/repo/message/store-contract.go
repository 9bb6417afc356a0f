package message_repo

import (
	"context"
	"strings"
	"time"

	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MessageStore is the append-only message log of every room. Within a room,
// messages are ordered by (created_at, id).
type MessageStore interface {
	Append(ctx context.Context, roomID, authorID int64, text string, mediaURL *string) (*entity.Message, *app_error.AppError)
	LastMessage(ctx context.Context, roomID int64) (*entity.Message, *app_error.AppError)
	Page(ctx context.Context, roomID int64, spec PageSpec) (*MessagePage, *app_error.AppError)
	MediaURLs(ctx context.Context, roomID int64) ([]string, *app_error.AppError)
}

// RoomFinder resolves rooms for stores that do not share a database with them.
type RoomFinder interface {
	FindRoomByID(ctx context.Context, roomID int64) (*entity.Room, *app_error.AppError)
}

// PageSpec selects a page of messages, newest first. When BeforeID is set the
// page holds messages strictly older than that message and Offset is ignored.
type PageSpec struct {
	Offset   int
	Limit    int
	BeforeID *int64
}

type MessagePage struct {
	Messages   []*entity.Message
	NextCursor *int64
	HasMore    bool
	Total      int64
}

func (p PageSpec) normalize() PageSpec {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 || p.BeforeID != nil {
		p.Offset = 0
	}
	return p
}

func validateContent(text string, mediaURL *string) *app_error.AppError {
	if strings.TrimSpace(text) == "" && (mediaURL == nil || *mediaURL == "") {
		return app_error.InvalidArgument("message text is required", "text")
	}
	return nil
}

// newPage trims the one-past-limit row fetched to detect further pages.
func newPage(rows []*entity.Message, limit int, total int64) *MessagePage {
	page := &MessagePage{Messages: rows, Total: total}
	if len(rows) > limit {
		page.Messages = rows[:limit]
		page.HasMore = true
		last := page.Messages[limit-1].ID
		page.NextCursor = &last
	}
	if page.Messages == nil {
		page.Messages = []*entity.Message{}
	}
	return page
}

func defaultClock() time.Time {
	return time.Now().UTC()
}
