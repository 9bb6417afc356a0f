package chat_service

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/config"
	"github.com/xenn00/chat-core/internal/dtos/chat_dto"
	"github.com/xenn00/chat-core/internal/dtos/user_dto"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/internal/pubsub"
	message_repo "github.com/xenn00/chat-core/internal/repo/message"
	room_repo "github.com/xenn00/chat-core/internal/repo/room"
	user_repo "github.com/xenn00/chat-core/internal/repo/user"
	room_service "github.com/xenn00/chat-core/internal/use-case/room-case"
	"github.com/xenn00/chat-core/state"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultDeliveryTimeout = 2 * time.Second
	defaultFanoutWorkers   = 16
)

type ChatService struct {
	AppState  *state.AppState
	Rooms     room_service.RoomServiceContract
	RoomRepo  room_repo.RoomRepoContract
	UserRepo  user_repo.UserRepoContract
	Messages  message_repo.MessageStore
	Publisher pubsub.Publisher

	DeliveryTimeout time.Duration
	FanoutWorkers   int
	Now             func() time.Time
}

func NewChatService(appState *state.AppState, rooms room_service.RoomServiceContract, messages message_repo.MessageStore, publisher pubsub.Publisher) *ChatService {
	svc := &ChatService{
		AppState:        appState,
		Rooms:           rooms,
		RoomRepo:        room_repo.NewRoomRepo(appState),
		UserRepo:        user_repo.NewUserRepo(appState),
		Messages:        messages,
		Publisher:       publisher,
		DeliveryTimeout: defaultDeliveryTimeout,
		FanoutWorkers:   defaultFanoutWorkers,
		Now:             time.Now,
	}
	if conf := config.Conf; conf != nil {
		if conf.CHAT.DeliveryTimeout > 0 {
			svc.DeliveryTimeout = conf.CHAT.DeliveryTimeout
		}
		if conf.CHAT.FanoutWorkers > 0 {
			svc.FanoutWorkers = conf.CHAT.FanoutWorkers
		}
	}
	return svc
}

// SendMessage persists the message and then delivers it to every
// participant's notification topic and to the room topic. It returns once
// every delivery has finished or timed out. Delivery failures are logged
// only; a persistence failure aborts before anything is published.
//
// Live order is only guaranteed per sender. Two senders in the same room
// fan out concurrently, so subscribers of the room topic may see their
// messages in a different order than the store assigned; clients that need
// the stored order reload the page through GetMessages.
func (s *ChatService) SendMessage(ctx context.Context, principalID int64, req chat_dto.SendMessageRequest) (*chat_dto.MessageResponse, *app_error.AppError) {
	author, appErr := s.UserRepo.FindUserByID(ctx, principalID)
	if appErr != nil {
		return nil, appErr
	}

	room, appErr := s.RoomRepo.FindRoomByID(ctx, req.RoomID)
	if appErr != nil {
		return nil, appErr
	}

	participants, appErr := s.RoomRepo.FindParticipants(ctx, room.ID)
	if appErr != nil {
		return nil, appErr
	}
	if !containsUser(participants, author.ID) {
		return nil, app_error.NotFound("participant not found", "participant")
	}

	msg, appErr := s.Messages.Append(ctx, room.ID, author.ID, req.Text, req.MediaURL)
	if appErr != nil {
		return nil, appErr
	}

	if appErr := s.RoomRepo.TouchRoom(ctx, room.ID, msg.CreatedAt); appErr != nil {
		log.Warn().Int64("roomID", room.ID).Msg("message stored but room modified_at not updated")
	}

	resp := chat_dto.NewMessageResponse(msg, user_dto.FromEntity(author))
	s.fanOut(ctx, room.ID, participants, resp)

	return &resp, nil
}

type delivery struct {
	topic   string
	payload []byte
}

func (s *ChatService) fanOut(ctx context.Context, roomID int64, participants []*entity.Participant, resp chat_dto.MessageResponse) {
	now := s.Now().Unix()
	deliveries := make([]delivery, 0, len(participants)+1)

	seen := make(map[int64]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.UserID]; dup {
			continue
		}
		seen[p.UserID] = struct{}{}

		topic := pubsub.UserTopic(p.UserID)
		if payload, ok := encodeEvent(chat_dto.EventNotification, topic, resp, now); ok {
			deliveries = append(deliveries, delivery{topic: topic, payload: payload})
		}
	}

	roomTopic := pubsub.RoomTopic(roomID)
	if payload, ok := encodeEvent(chat_dto.EventChatMessage, roomTopic, resp, now); ok {
		deliveries = append(deliveries, delivery{topic: roomTopic, payload: payload})
	}

	// deliveries outlive a caller that goes away after the message is stored
	base := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(max(s.FanoutWorkers, 1))
	for _, d := range deliveries {
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(base, s.DeliveryTimeout)
			defer cancel()

			if err := s.Publisher.Publish(dctx, d.topic, d.payload); err != nil {
				log.Warn().Err(err).Str("topic", d.topic).Int64("messageID", resp.ID).Msg("delivery failed, dropping")
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Debug().Int64("roomID", roomID).Int64("messageID", resp.ID).Int("destinations", len(deliveries)).Msg("message fanned out")
}

func encodeEvent(eventType, topic string, data any, ts int64) ([]byte, bool) {
	payload, err := json.Marshal(chat_dto.WSOutgoingMessage{
		Type:      eventType,
		Topic:     topic,
		Data:      data,
		Timestamp: ts,
	})
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to encode event")
		return nil, false
	}
	return payload, true
}

func containsUser(participants []*entity.Participant, userID int64) bool {
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// CreateRoom finds or creates the room of the principal and req.UserIDs.
func (s *ChatService) CreateRoom(ctx context.Context, principalID int64, req chat_dto.CreateRoomRequest) (*chat_dto.RoomResponse, *app_error.AppError) {
	room, created, appErr := s.Rooms.FindOrCreateRoom(ctx, principalID, req.UserIDs)
	if appErr != nil {
		return nil, appErr
	}

	view, appErr := s.Rooms.RoomView(ctx, room, principalID)
	if appErr != nil {
		return nil, appErr
	}
	view.Created = created
	return view, nil
}

func (s *ChatService) GetMessages(ctx context.Context, principalID, roomID int64, req chat_dto.GetMessagesRequest) (*chat_dto.MessagePageResponse, *app_error.AppError) {
	if appErr := s.Rooms.RequireParticipant(ctx, roomID, principalID); appErr != nil {
		return nil, appErr
	}

	size := req.Size
	if size <= 0 {
		size = message_repo.DefaultPageSize
	}
	page, appErr := s.Messages.Page(ctx, roomID, message_repo.PageSpec{
		Offset:   max(req.Page, 0) * size,
		Limit:    size,
		BeforeID: req.BeforeID,
	})
	if appErr != nil {
		return nil, appErr
	}

	authorIDs := make([]int64, 0, len(page.Messages))
	for _, m := range page.Messages {
		authorIDs = append(authorIDs, m.UserID)
	}
	authors, appErr := s.UserRepo.FindUsersByIDs(ctx, entity.NormalizeParticipants(authorIDs))
	if appErr != nil {
		return nil, appErr
	}

	resp := &chat_dto.MessagePageResponse{
		Messages:   make([]chat_dto.MessageResponse, 0, len(page.Messages)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Total:      page.Total,
	}
	for _, m := range page.Messages {
		author := user_dto.PublicUser{ID: m.UserID}
		if u, ok := authors[m.UserID]; ok {
			author = user_dto.FromEntity(u)
		}
		resp.Messages = append(resp.Messages, chat_dto.NewMessageResponse(m, author))
	}
	return resp, nil
}

func (s *ChatService) GetMediaURLs(ctx context.Context, principalID, roomID int64) ([]string, *app_error.AppError) {
	if appErr := s.Rooms.RequireParticipant(ctx, roomID, principalID); appErr != nil {
		return nil, appErr
	}
	return s.Messages.MediaURLs(ctx, roomID)
}
