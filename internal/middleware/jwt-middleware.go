package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/chat-core/internal/errors"
	"github.com/xenn00/chat-core/internal/utils"
)

type claimsKey string

const UserClaimsKey claimsKey = "userClaims"

// Principal is the authenticated caller.
type Principal struct {
	UserID   int64
	Username string
	TokenID  string
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(UserClaimsKey).(Principal)
	return p, ok && p.UserID > 0
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, UserClaimsKey, p)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf("revoked:%s", jti)
}

// Authenticate resolves the bearer token of r to a principal. When rdb is
// set, tokens whose id is listed under revoked:{jti} are rejected.
func Authenticate(r *http.Request, publicKey *rsa.PublicKey, rdb *redis.Client) (Principal, *app_error.AppError) {
	tokenStr := TokenFromRequest(r)
	if tokenStr == "" {
		return Principal{}, app_error.Unauthenticated("Missing Authorization header", "auth")
	}

	claims, err := utils.ParseAndVerifySign(tokenStr, publicKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, app_error.Unauthenticated("token expired, please refresh and reconnect", "auth")
		}
		log.Debug().Err(err).Msg("jwt verify failed")
		return Principal{}, app_error.Unauthenticated("Invalid or expired token", "auth")
	}

	userID, err := claims.UserID()
	if err != nil {
		return Principal{}, app_error.Unauthenticated("Invalid token subject", "auth")
	}

	if rdb != nil && claims.ID != "" {
		revoked, err := rdb.Exists(r.Context(), RevokedTokenKey(claims.ID)).Result()
		if err != nil {
			log.Error().Err(err).Msg("failed to check token revocation")
			return Principal{}, app_error.Internal("failed to verify session", "redis")
		}
		if revoked > 0 {
			return Principal{}, app_error.Unauthenticated("session revoked", "auth")
		}
	}

	return Principal{UserID: userID, Username: claims.Username, TokenID: claims.ID}, nil
}

func JWTAuth(publicKey *rsa.PublicKey, rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, appErr := Authenticate(r, publicKey, rdb)
			if appErr != nil {
				writeAppError(w, appErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// TokenFromRequest reads the bearer token from the Authorization header, the
// token query parameter or the access_token cookie, in that order. Browsers
// cannot set headers on a websocket handshake.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
		return ""
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	cookie, err := r.Cookie("access_token")
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}

func writeAppError(w http.ResponseWriter, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = appErr.JSON(w)
}
