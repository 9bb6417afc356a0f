package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestIdKey string

const RequestIdKey requestIdKey = "requestId"

// WithRequestId keeps an incoming X-Request-ID or assigns a new one and
// echoes it on the response.
func WithRequestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqId := r.Header.Get("X-Request-ID")
		if reqId == "" {
			reqId = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), RequestIdKey, reqId)
		r = r.WithContext(ctx)
		r.Header.Set("X-Request-ID", reqId)
		w.Header().Set("X-Request-ID", reqId)

		next.ServeHTTP(w, r)
	})
}

func RequestIdFromContext(ctx context.Context) string {
	reqID, ok := ctx.Value(RequestIdKey).(string)
	if !ok {
		return "unknown"
	}
	return reqID
}
