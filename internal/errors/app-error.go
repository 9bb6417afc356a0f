package app_error

import (
	"encoding/json"
	"errors"
	"net/http"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e AppError) Error() string {
	return e.Message
}

func (e AppError) JSON(w http.ResponseWriter) error {
	return json.NewEncoder(w).Encode(e)
}

func NewAppError(code int, msg, field string) *AppError {
	return &AppError{
		Code:    code,
		Message: msg,
		Field:   field,
	}
}

func NotFound(msg, field string) *AppError {
	return NewAppError(http.StatusNotFound, msg, field)
}

func InvalidArgument(msg, field string) *AppError {
	return NewAppError(http.StatusBadRequest, msg, field)
}

func Unauthenticated(msg, field string) *AppError {
	return NewAppError(http.StatusUnauthorized, msg, field)
}

// Conflict marks a lost find-or-create race. It is resolved inside the room
// directory and never reaches a caller.
func Conflict(msg, field string) *AppError {
	return NewAppError(http.StatusConflict, msg, field)
}

func Internal(msg, field string) *AppError {
	return NewAppError(http.StatusInternalServerError, msg, field)
}

func HasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsNotFound(err error) bool {
	return HasCode(err, http.StatusNotFound)
}

func IsInvalidArgument(err error) bool {
	return HasCode(err, http.StatusBadRequest)
}

func IsConflict(err error) bool {
	return HasCode(err, http.StatusConflict)
}
