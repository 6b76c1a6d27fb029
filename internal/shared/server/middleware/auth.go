package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-reviewer/internal/shared/auth"
	"resume-reviewer/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	sessionIDKey = "sessionId"
)

// Auth validates bearer JWTs and stores identity in context. Requests to a
// path listed in public pass without a token, but a valid token sent to one
// is still honoured so handlers can tell who is calling.
func Auth(public ...string) gin.HandlerFunc {
	open := make(map[string]struct{}, len(public))
	for _, p := range public {
		open[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		_, isPublic := open[c.Request.URL.Path]
		claims, err := bearerClaims(c.GetHeader("Authorization"))
		if err != nil {
			switch {
			case isPublic:
				c.Next()
			case errors.Is(err, auth.ErrExpiredToken):
				respond.Error(c, http.StatusUnauthorized, "session_expired", "Session expired, please sign in again", nil)
			default:
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			}
			return
		}

		c.Set(userIDKey, claims.Sub)
		if claims.Sid != "" {
			c.Set(sessionIDKey, claims.Sid)
		}
		c.Next()
	}
}

func bearerClaims(header string) (auth.Claims, error) {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "Bearer ") {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	if token == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return auth.VerifyJWT(token)
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// SessionIDFromContext fetches the session ID carried by the caller's token.
func SessionIDFromContext(c *gin.Context) string {
	return stringFromContext(c, sessionIDKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
