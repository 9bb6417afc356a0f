package room_repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/state"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepo struct {
	AppState *state.AppState
}

func NewRoomRepo(appState *state.AppState) RoomRepoContract {
	return &RoomRepo{
		AppState: appState,
	}
}

func (r *RoomRepo) FindRoomByKey(ctx context.Context, participantKey string) (*entity.Room, *app_error.AppError) {
	var room entity.Room
	if err := r.AppState.DB.WithContext(ctx).Where("participant_key = ?", participantKey).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("room not found", "participant-key")
		}
		log.Error().Err(err).Str("participantKey", participantKey).Msg("failed to fetch room by key")
		return nil, app_error.Internal("failed to fetch room", "db-error")
	}
	return &room, nil
}

// FindRoomByExactParticipants matches a room whose participants contain every
// id in userIDs and nothing else. It does not rely on participant_key.
func (r *RoomRepo) FindRoomByExactParticipants(ctx context.Context, userIDs []int64) (*entity.Room, *app_error.AppError) {
	ids := entity.NormalizeParticipants(userIDs)
	if len(ids) == 0 {
		return nil, app_error.InvalidArgument("empty participant set", "user_ids")
	}

	query := `
		SELECT r.* FROM rooms r
		WHERE r.id IN (
			SELECT p1.room_id
			FROM participants p1
			WHERE p1.user_id IN ?
			GROUP BY p1.room_id
			HAVING COUNT(DISTINCT p1.user_id) = ?
		)
		AND (
			SELECT COUNT(*) FROM participants p2
			WHERE p2.room_id = r.id
		) = ?
		ORDER BY r.id
		LIMIT 1
	`

	var room entity.Room
	result := r.AppState.DB.WithContext(ctx).Raw(query, ids, len(ids), len(ids)).Scan(&room)
	if result.Error != nil {
		log.Error().Err(result.Error).Ints64("userIDs", ids).Msg("failed to query room by participants")
		return nil, app_error.Internal("failed to query room", "db-error")
	}
	if result.RowsAffected == 0 {
		return nil, app_error.NotFound("room not found", "user_ids")
	}
	return &room, nil
}

// CreateRoomWithParticipants inserts the room and all of its participants in
// one transaction. A room that already exists for the same participant set
// yields a Conflict error and nothing is written.
func (r *RoomRepo) CreateRoomWithParticipants(ctx context.Context, userIDs []int64, now time.Time) (*entity.Room, *app_error.AppError) {
	ids := entity.NormalizeParticipants(userIDs)
	if len(ids) == 0 {
		return nil, app_error.InvalidArgument("empty participant set", "user_ids")
	}

	newRoom := &entity.Room{
		ParticipantKey: entity.ParticipantKey(ids),
		CreatedAt:      now,
		ModifiedAt:     now,
	}

	err := r.AppState.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newRoom).Error; err != nil {
			return err
		}

		participants := make([]*entity.Participant, len(ids))
		for i, id := range ids {
			participants[i] = &entity.Participant{RoomID: newRoom.ID, UserID: id}
		}
		return tx.Omit(clause.Associations).Create(&participants).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, app_error.Conflict("room already exists for participants", "participant-key")
		}
		log.Error().Err(err).Str("participantKey", newRoom.ParticipantKey).Msg("failed to create room")
		return nil, app_error.Internal("failed to create room", "db-error")
	}

	log.Info().Int64("roomID", newRoom.ID).Str("participantKey", newRoom.ParticipantKey).Msg("room created")
	return newRoom, nil
}

func (r *RoomRepo) FindRoomByID(ctx context.Context, roomID int64) (*entity.Room, *app_error.AppError) {
	var room entity.Room
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("room not found", "room-id")
		}
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to fetch room")
		return nil, app_error.Internal("failed to fetch room", "db-error")
	}
	return &room, nil
}

// FindParticipants returns the participants of the room with their users loaded.
func (r *RoomRepo) FindParticipants(ctx context.Context, roomID int64) ([]*entity.Participant, *app_error.AppError) {
	var participants []*entity.Participant
	if err := r.AppState.DB.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		Order("user_id").
		Find(&participants).Error; err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to fetch participants")
		return nil, app_error.Internal("failed to fetch room participants", "db-error")
	}
	return participants, nil
}

func (r *RoomRepo) IsParticipant(ctx context.Context, roomID, userID int64) (bool, *app_error.AppError) {
	var count int64
	if err := r.AppState.DB.WithContext(ctx).
		Model(&entity.Participant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error; err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Int64("userID", userID).Msg("failed to check participant")
		return false, app_error.Internal("failed to check participant", "db-error")
	}
	return count > 0, nil
}

// ListRoomsForUser pages the rooms the user takes part in, most recently
// modified first. The second result is the total number of such rooms.
func (r *RoomRepo) ListRoomsForUser(ctx context.Context, userID int64, offset, limit int) ([]*entity.Room, int64, *app_error.AppError) {
	base := r.AppState.DB.WithContext(ctx).
		Model(&entity.Room{}).
		Joins("JOIN participants p ON p.room_id = rooms.id").
		Where("p.user_id = ?", userID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		log.Error().Err(err).Int64("userID", userID).Msg("failed to count rooms")
		return nil, 0, app_error.Internal("failed to count rooms", "db-error")
	}

	var rooms []*entity.Room
	if err := base.Session(&gorm.Session{}).
		Order("rooms.modified_at DESC").
		Order("rooms.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rooms).Error; err != nil {
		log.Error().Err(err).Int64("userID", userID).Msg("failed to list rooms")
		return nil, 0, app_error.Internal("failed to list rooms", "db-error")
	}

	return rooms, total, nil
}

func (r *RoomRepo) TouchRoom(ctx context.Context, roomID int64, at time.Time) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).
		Model(&entity.Room{}).
		Where("id = ?", roomID).
		Update("modified_at", at).Error; err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to touch room")
		return app_error.Internal("failed to update room", "db-error")
	}
	return nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
