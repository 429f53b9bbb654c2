package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/pindrop/pindrop/cmd/server/models"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated user id
	UserIDKey ContextKey = "userID"
)

// UserSyncer upserts a user row from session data
type UserSyncer interface {
	Ensure(ctx context.Context, user *models.User) error
}

// RequireSession rejects requests without an authenticated user and lazily
// syncs the user row on first sight. The session gateway upstream verifies
// identity and forwards it in headers; this service trusts those headers.
//
// The sync guard is per-process: each user is upserted at most once per
// server lifetime, which is enough since the gateway stays authoritative.
func RequireSession(syncer UserSyncer) echo.MiddlewareFunc {
	var synced sync.Map

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get("X-User-ID")
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": "authentication required",
				})
			}

			if _, done := synced.Load(userID); !done {
				user := userFromHeaders(c, userID)
				if err := syncer.Ensure(c.Request().Context(), user); err != nil {
					return c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"error": "failed to sync user",
					})
				}
				synced.Store(userID, struct{}{})
			}

			c.Set(string(UserIDKey), userID)
			return next(c)
		}
	}
}

func userFromHeaders(c echo.Context, userID string) *models.User {
	user := &models.User{
		UserID: userID,
		Email:  c.Request().Header.Get("X-User-Email"),
	}
	if v := c.Request().Header.Get("X-User-Firstname"); v != "" {
		user.Firstname = &v
	}
	if v := c.Request().Header.Get("X-User-Lastname"); v != "" {
		user.Lastname = &v
	}
	return user
}

// GetUserID retrieves the authenticated user id from the request context.
// Returns empty string if not set.
func GetUserID(c echo.Context) string {
	userID := c.Get(string(UserIDKey))
	if userID == nil {
		return ""
	}
	return userID.(string)
}
