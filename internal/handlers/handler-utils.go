package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-core/internal/dtos"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/internal/middleware"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

type HandlerFunc func(w http.ResponseWriter, r *http.Request) *app_error.AppError

func WrapHandler(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			reqID := middleware.RequestIdFromContext(r.Context())
			if err.Code >= http.StatusInternalServerError {
				log.Error().Err(err).Msg(fmt.Sprintf("error occur, request id: %s", reqID))
			} else {
				log.Debug().Err(err).Int("code", err.Code).Msg(fmt.Sprintf("request rejected, request id: %s", reqID))
			}
			WriteJSON(w, err.Code, dtos.Response[any]{
				Message: "Error occur",
				Errors: &dtos.ErrorResponse{
					Code:    err.Code,
					Field:   err.Field,
					Message: err.Message,
				},
				RequestID: reqID,
			})
		}
	}
}

func CreateResponse[T any](message string, data T, requestId string) dtos.Response[T] {
	return dtos.Response[T]{
		Message:   message,
		Data:      data,
		RequestID: requestId,
	}
}

// Respond writes data inside the standard envelope.
func Respond[T any](w http.ResponseWriter, r *http.Request, status int, message string, data T) {
	WriteJSON(w, status, CreateResponse(message, data, middleware.RequestIdFromContext(r.Context())))
}

func PrincipalID(r *http.Request) (int64, *app_error.AppError) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return 0, app_error.Unauthenticated("user id is not found in context", "context")
	}
	return principal.UserID, nil
}

// PathInt64 parses a positive integer URL parameter.
func PathInt64(r *http.Request, name string) (int64, *app_error.AppError) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, app_error.InvalidArgument(fmt.Sprintf("invalid %s", name), name)
	}
	return id, nil
}

// QueryInt returns def when the parameter is absent.
func QueryInt(r *http.Request, name string, def int) (int, *app_error.AppError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, app_error.InvalidArgument(fmt.Sprintf("invalid %s", name), name)
	}
	return v, nil
}
