package message_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/entity"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	messagesCollection = "messages"
	countersCollection = "counters"
)

// MongoStore keeps messages in a MongoDB collection. Rooms stay in the
// relational database and are resolved through Rooms. Message ids are
// allocated from a counter document so they stay numeric and monotonic.
type MongoStore struct {
	Messages *mongo.Collection
	Counters *mongo.Collection
	Rooms    RoomFinder
	Now      func() time.Time
}

func NewMongoStore(ctx context.Context, client *mongo.Client, database string, rooms RoomFinder) (*MongoStore, error) {
	db := client.Database(database)
	store := &MongoStore{
		Messages: db.Collection(messagesCollection),
		Counters: db.Collection(countersCollection),
		Rooms:    rooms,
		Now:      defaultClock,
	}

	_, err := store.Messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message index: %w", err)
	}

	return store, nil
}

func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.Counters.FindOneAndUpdate(ctx,
		bson.M{"_id": messagesCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

func (s *MongoStore) Append(ctx context.Context, roomID, authorID int64, text string, mediaURL *string) (*entity.Message, *app_error.AppError) {
	if appErr := validateContent(text, mediaURL); appErr != nil {
		return nil, appErr
	}
	if _, appErr := s.Rooms.FindRoomByID(ctx, roomID); appErr != nil {
		return nil, appErr
	}

	id, err := s.nextID(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to allocate message id")
		return nil, app_error.Internal("failed to allocate message id", "mongo")
	}

	// BSON dates carry millisecond precision.
	msg := &entity.Message{
		ID:        id,
		RoomID:    roomID,
		UserID:    authorID,
		Text:      text,
		MediaURL:  mediaURL,
		CreatedAt: s.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.Messages.InsertOne(ctx, msg); err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Int64("authorID", authorID).Msg("failed to persist message")
		return nil, app_error.Internal("failed to persist message", "mongo")
	}

	return msg, nil
}

func (s *MongoStore) LastMessage(ctx context.Context, roomID int64) (*entity.Message, *app_error.AppError) {
	var msg entity.Message
	err := s.Messages.FindOne(ctx,
		bson.M{"room_id": roomID},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to fetch last message")
		return nil, app_error.Internal("failed to fetch last message", "mongo")
	}
	return &msg, nil
}

func (s *MongoStore) Page(ctx context.Context, roomID int64, spec PageSpec) (*MessagePage, *app_error.AppError) {
	spec = spec.normalize()

	total, err := s.Messages.CountDocuments(ctx, bson.M{"room_id": roomID})
	if err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to count messages")
		return nil, app_error.Internal("failed to count messages", "mongo")
	}

	filter := bson.M{"room_id": roomID}
	if spec.BeforeID != nil {
		var cursor entity.Message
		if err := s.Messages.FindOne(ctx, bson.M{"_id": *spec.BeforeID, "room_id": roomID}).Decode(&cursor); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, app_error.InvalidArgument("before_id does not belong to the room", "before_id")
			}
			log.Error().Err(err).Int64("beforeID", *spec.BeforeID).Msg("failed to fetch cursor message")
			return nil, app_error.Internal("failed to fetch messages", "mongo")
		}
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": cursor.CreatedAt}},
			bson.M{"created_at": cursor.CreatedAt, "_id": bson.M{"$lt": cursor.ID}},
		}
	}

	cur, err := s.Messages.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(spec.Offset)).
		SetLimit(int64(spec.Limit+1)))
	if err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to page messages")
		return nil, app_error.Internal("failed to fetch messages", "mongo")
	}
	defer cur.Close(ctx)

	var rows []*entity.Message
	if err := cur.All(ctx, &rows); err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to decode messages")
		return nil, app_error.Internal("failed to decode messages", "mongo")
	}

	return newPage(rows, spec.Limit, total), nil
}

func (s *MongoStore) MediaURLs(ctx context.Context, roomID int64) ([]string, *app_error.AppError) {
	cur, err := s.Messages.Find(ctx,
		bson.M{"room_id": roomID, "media_url": bson.M{"$nin": bson.A{nil, ""}}},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
			SetProjection(bson.M{"media_url": 1}),
	)
	if err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to fetch media urls")
		return nil, app_error.Internal("failed to fetch media urls", "mongo")
	}
	defer cur.Close(ctx)

	urls := []string{}
	for cur.Next(ctx) {
		var row struct {
			MediaURL string `bson:"media_url"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, app_error.Internal("failed to decode media url", "mongo")
		}
		urls = append(urls, row.MediaURL)
	}
	if err := cur.Err(); err != nil {
		return nil, app_error.Internal("failed to fetch media urls", "mongo")
	}
	return urls, nil
}
