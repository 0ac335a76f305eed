package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mendo-app/backend/internal/model"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps the domain
// sentinels to deterministic status codes, logs unexpected errors and always
// renders the same JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from the router, body limits).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, model.ErrAccountSuspended):
		return http.StatusForbidden, "account suspended"
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, model.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, model.ErrUsernameTaken):
		return http.StatusConflict, "username already taken"
	case errors.Is(err, model.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, model.ErrRequestNotFound):
		return http.StatusNotFound, "repair request not found"
	case errors.Is(err, model.ErrQuoteNotFound):
		return http.StatusNotFound, "quote not found"
	case errors.Is(err, model.ErrRequestClosed):
		return http.StatusBadRequest, "request no longer accepting quotes"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
	return http.StatusInternalServerError, "internal server error"
}
