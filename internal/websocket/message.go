package websocket

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/dtos/chat_dto"
	app_error "github.com/xenn00/chat-core/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func encodeFrame(eventType, topic string, data any) ([]byte, bool) {
	payload, err := json.Marshal(chat_dto.WSOutgoingMessage{
		Type:      eventType,
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("ws: failed to encode frame")
		return nil, false
	}
	return payload, true
}

func errorFrame(appErr *app_error.AppError) chat_dto.WSError {
	return chat_dto.WSError{
		Code:    appErr.Code,
		Message: appErr.Message,
		Field:   appErr.Field,
	}
}
