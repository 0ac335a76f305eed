// Package handler holds the HTTP layer: request schemas, echo handlers and
// the central error handler. Handlers bind and validate input, delegate to
// the services and translate nothing themselves; error mapping is
// centralized in NewHTTPErrorHandler.
package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mendo-app/backend/internal/middleware"
)

// userID extracts the authenticated user's id injected by SessionAuth.
func userID(c echo.Context) (uint64, error) {
	id, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

// sessionToken returns the raw session token, or "" when unauthenticated.
func sessionToken(c echo.Context) string {
	tok, _ := c.Get(middleware.CtxSessionToken).(string)
	return tok
}

// pathID parses the named path parameter as a positive integer.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// pagination reads ?page= and ?per_page=, leaving normalization to the
// admin service.
func pagination(c echo.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	perPage, _ = strconv.Atoi(c.QueryParam("per_page"))
	return page, perPage
}
