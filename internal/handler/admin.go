package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mendo-app/backend/internal/service"
)

// AdminHandler exposes the back office: dashboard, listings and status
// overrides. Routes are mounted behind RequireRole("admin"); the
// delete-by-email maintenance endpoint additionally checks a shared token.
type AdminHandler struct {
	admin            *service.AdminService
	maintenanceToken string
}

func NewAdminHandler(admin *service.AdminService, maintenanceToken string) *AdminHandler {
	return &AdminHandler{admin: admin, maintenanceToken: maintenanceToken}
}

// Dashboard returns the aggregate counters.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	d, err := h.admin.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Users lists accounts, filterable by role and status.
func (h *AdminHandler) Users(c echo.Context) error {
	page, perPage := pagination(c)
	p, err := h.admin.ListUsers(c.Request().Context(), c.QueryParam("role"), c.QueryParam("status"), page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"users":    toUserResponses(p.Items),
		"total":    p.Total,
		"page":     p.Page,
		"per_page": p.PerPage,
	})
}

// Requests lists repair requests, filterable by status and category.
func (h *AdminHandler) Requests(c echo.Context) error {
	page, perPage := pagination(c)
	p, err := h.admin.ListRequests(c.Request().Context(), c.QueryParam("status"), c.QueryParam("category"), page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"requests": toSummaryResponses(p.Items),
		"total":    p.Total,
		"page":     p.Page,
		"per_page": p.PerPage,
	})
}

// Quotes lists quotes, filterable by status.
func (h *AdminHandler) Quotes(c echo.Context) error {
	page, perPage := pagination(c)
	p, err := h.admin.ListQuotes(c.Request().Context(), c.QueryParam("status"), page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"quotes":   toQuoteResponses(p.Items),
		"total":    p.Total,
		"page":     p.Page,
		"per_page": p.PerPage,
	})
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SetUserStatus suspends or reactivates an account.
func (h *AdminHandler) SetUserStatus(c echo.Context) error {
	adminID, err := userID(c)
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.admin.SetUserStatus(c.Request().Context(), adminID, targetID, req.Status); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "status updated"})
}

// SetRequestStatus forces a request status, including out-of-sequence jumps.
func (h *AdminHandler) SetRequestStatus(c echo.Context) error {
	adminID, err := userID(c)
	if err != nil {
		return err
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.admin.SetRequestStatus(c.Request().Context(), adminID, requestID, req.Status); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "status updated"})
}

type deleteUserRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// DeleteUserByEmail is a maintenance endpoint guarded by a shared token in
// the X-Admin-Token header, on top of the admin session. An empty configured
// token disables it entirely.
func (h *AdminHandler) DeleteUserByEmail(c echo.Context) error {
	if h.maintenanceToken == "" {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	provided := c.Request().Header.Get("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.maintenanceToken)) != 1 {
		return echo.NewHTTPError(http.StatusForbidden, "invalid maintenance token")
	}
	var req deleteUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	deleted, err := h.admin.DeleteUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "user deleted"})
}
