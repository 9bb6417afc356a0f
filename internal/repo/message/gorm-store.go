package message_repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/state"
	"gorm.io/gorm"
)

// GormStore keeps messages in the relational database next to their rooms.
type GormStore struct {
	AppState *state.AppState
	Now      func() time.Time
}

func NewGormStore(appState *state.AppState) *GormStore {
	return &GormStore{
		AppState: appState,
		Now:      defaultClock,
	}
}

func (s *GormStore) Append(ctx context.Context, roomID, authorID int64, text string, mediaURL *string) (*entity.Message, *app_error.AppError) {
	if appErr := validateContent(text, mediaURL); appErr != nil {
		return nil, appErr
	}

	db := s.AppState.DB.WithContext(ctx)

	var rooms int64
	if err := db.Model(&entity.Room{}).Where("id = ?", roomID).Count(&rooms).Error; err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to resolve room for message")
		return nil, app_error.Internal("failed to resolve room", "db-error")
	}
	if rooms == 0 {
		return nil, app_error.NotFound("room not found", "room-id")
	}

	msg := &entity.Message{
		RoomID:    roomID,
		UserID:    authorID,
		Text:      text,
		MediaURL:  mediaURL,
		CreatedAt: s.Now().UTC(),
	}
	if err := db.Create(msg).Error; err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Int64("authorID", authorID).Msg("failed to persist message")
		return nil, app_error.Internal("failed to persist message", "db-error")
	}

	return msg, nil
}

func (s *GormStore) LastMessage(ctx context.Context, roomID int64) (*entity.Message, *app_error.AppError) {
	var msg entity.Message
	err := s.AppState.DB.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Order("id DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to fetch last message")
		return nil, app_error.Internal("failed to fetch last message", "db-error")
	}
	return &msg, nil
}

func (s *GormStore) Page(ctx context.Context, roomID int64, spec PageSpec) (*MessagePage, *app_error.AppError) {
	spec = spec.normalize()
	db := s.AppState.DB.WithContext(ctx)

	var total int64
	if err := db.Model(&entity.Message{}).Where("room_id = ?", roomID).Count(&total).Error; err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to count messages")
		return nil, app_error.Internal("failed to count messages", "db-error")
	}

	query := db.Where("room_id = ?", roomID)
	if spec.BeforeID != nil {
		var cursor entity.Message
		if err := db.Where("id = ? AND room_id = ?", *spec.BeforeID, roomID).First(&cursor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, app_error.InvalidArgument("before_id does not belong to the room", "before_id")
			}
			log.Error().Err(err).Int64("beforeID", *spec.BeforeID).Msg("failed to fetch cursor message")
			return nil, app_error.Internal("failed to fetch messages", "db-error")
		}
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []*entity.Message
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(spec.Offset).
		Limit(spec.Limit + 1).
		Find(&rows).Error; err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to page messages")
		return nil, app_error.Internal("failed to fetch messages", "db-error")
	}

	return newPage(rows, spec.Limit, total), nil
}

func (s *GormStore) MediaURLs(ctx context.Context, roomID int64) ([]string, *app_error.AppError) {
	urls := []string{}
	if err := s.AppState.DB.WithContext(ctx).
		Model(&entity.Message{}).
		Where("room_id = ? AND media_url IS NOT NULL AND media_url <> ''", roomID).
		Order("created_at").
		Order("id").
		Pluck("media_url", &urls).Error; err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to fetch media urls")
		return nil, app_error.Internal("failed to fetch media urls", "db-error")
	}
	return urls, nil
}
