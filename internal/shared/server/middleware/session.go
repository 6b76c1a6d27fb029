package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-reviewer/internal/sessions"
	"resume-reviewer/internal/shared/server/respond"
	"resume-reviewer/internal/shared/telemetry"
)

// SessionLookup resolves the server-side session named by a token.
type SessionLookup interface {
	Current(ctx context.Context, id string) (sessions.Session, error)
}

// RequireSession rejects tokens whose session has ended by logout, expiry
// or an upstream rejection. A nil lookup disables the check.
func RequireSession(lookup SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lookup == nil {
			c.Next()
			return
		}
		sid := SessionIDFromContext(c)
		if sid == "" {
			respond.Error(c, http.StatusUnauthorized, "no_session", "Authentication token not found", nil)
			return
		}

		_, err := lookup.Current(c.Request.Context(), sid)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, sessions.ErrExpired):
			respond.Error(c, http.StatusUnauthorized, "session_expired", "Session expired, please sign in again", nil)
		case errors.Is(err, sessions.ErrNotFound):
			respond.Error(c, http.StatusUnauthorized, "no_session", "Authentication token not found", nil)
		default:
			telemetry.Error("session.lookup_failed", map[string]any{
				"session_id": sid,
				"error":      err.Error(),
			})
			respond.Error(c, http.StatusInternalServerError, "internal", "internal error", nil)
		}
	}
}
