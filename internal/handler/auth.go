package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mendo-app/backend/internal/middleware"
	"github.com/mendo-app/backend/internal/service"
)

// AuthHandler exposes registration, login and profile endpoints. The session
// token travels in an HttpOnly cookie, never in the JSON body.
type AuthHandler struct {
	auth         *service.AuthService
	sessionTTL   time.Duration
	secureCookie bool
}

func NewAuthHandler(auth *service.AuthService, sessionTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, sessionTTL: sessionTTL, secureCookie: secureCookie}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User userResponse `json:"user"`
}

// Register creates a new account and logs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	u, token, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, token)
	return c.JSON(http.StatusCreated, authResponse{User: toUserResponse(u)})
}

// Login authenticates by email and password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	u, token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, token)
	return c.JSON(http.StatusOK, authResponse{User: toUserResponse(u)})
}

// Logout discards the server-side session and expires the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if tok := sessionToken(c); tok != "" {
		if err := h.auth.Logout(c.Request().Context(), tok); err != nil {
			return err
		}
	}
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	u, err := h.auth.CurrentUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: toUserResponse(u)})
}

// UpdateProfile edits the profile of the authenticated user.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req service.ProfileInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	u, err := h.auth.UpdateProfile(c.Request().Context(), id, sessionToken(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: toUserResponse(u)})
}

// Verify redeems the email-verification link sent in the welcome email.
func (h *AuthHandler) Verify(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}
	u, err := h.auth.VerifyEmail(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "email verified",
		"user":    toUserResponse(u),
	})
}

// setSessionCookie hands the session token to the browser. SameSite=None
// because the front end is served from a different origin, which in turn
// requires the Secure flag outside local development.
func (h *AuthHandler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteNoneMode,
	})
}
