// Package middleware provides shared request processing: session
// resolution, role enforcement and the auth-endpoint rate limiter.
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mendo-app/backend/internal/session"
)

// CookieName is the session cookie handed to the browser at login.
const CookieName = "mendo_session"

// Context keys populated by SessionAuth for downstream handlers.
const (
	CtxUserID       = "user_id"
	CtxRole         = "role"
	CtxSessionToken = "session_token"
)

// SessionAuth resolves the session cookie against the store and stores the
// user's id, role and raw token in the echo context. Requests without a
// valid session are rejected with 401.
func SessionAuth(store session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			sess, err := store.Get(c.Request().Context(), cookie.Value)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "session expired"})
			}
			c.Set(CtxUserID, sess.UserID)
			c.Set(CtxRole, sess.Role)
			c.Set(CtxSessionToken, cookie.Value)
			return next(c)
		}
	}
}
