package websocket

import (
	"crypto/rsa"
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/xenn00/chat-core/internal/middleware"
)

// AuthenticatorFunc resolves the user id of a websocket handshake.
type AuthenticatorFunc func(r *http.Request) (int64, error)

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// JWTWebSocketAuth validates the bearer token of the handshake, taken from
// the Authorization header, the token query parameter or the access_token
// cookie.
func JWTWebSocketAuth(publicKey *rsa.PublicKey, rdb *redis.Client) AuthenticatorFunc {
	return func(r *http.Request) (int64, error) {
		principal, appErr := middleware.Authenticate(r, publicKey, rdb)
		if appErr != nil {
			return 0, &AuthError{Message: appErr.Message}
		}
		return principal.UserID, nil
	}
}

// QueryUserAuth trusts the user_id query parameter. Only for tests and local
// development.
func QueryUserAuth(r *http.Request) (int64, error) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		return 0, &AuthError{Message: "user_id is required"}
	}
	return userID, nil
}
