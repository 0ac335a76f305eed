package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mendo-app/backend/internal/service"
)

// QuoteHandler exposes quote submission and acceptance.
type QuoteHandler struct {
	repairs *service.RepairService
}

func NewQuoteHandler(repairs *service.RepairService) *QuoteHandler {
	return &QuoteHandler{repairs: repairs}
}

type submitQuoteRequest struct {
	Price             float64 `json:"price" validate:"required,gt=0"`
	EstimatedDuration string  `json:"estimated_duration" validate:"required"`
	Conditions        string  `json:"conditions"`
	LocationType      string  `json:"location_type" validate:"omitempty,oneof=domicile atelier"`
}

// Submit records a quote against the request in the path.
func (h *QuoteHandler) Submit(c echo.Context) error {
	repairerID, err := userID(c)
	if err != nil {
		return err
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req submitQuoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	q, err := h.repairs.SubmitQuote(c.Request().Context(), repairerID, service.SubmitQuoteInput{
		RepairRequestID:   requestID,
		Price:             req.Price,
		EstimatedDuration: req.EstimatedDuration,
		Conditions:        req.Conditions,
		LocationType:      req.LocationType,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"quote": toQuoteResponse(q)})
}

// Accept accepts the quote in the path on behalf of the request's owner.
func (h *QuoteHandler) Accept(c echo.Context) error {
	clientID, err := userID(c)
	if err != nil {
		return err
	}
	quoteID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	q, err := h.repairs.AcceptQuote(c.Request().Context(), clientID, quoteID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"quote": toQuoteResponse(q)})
}

// MyQuotes lists the authenticated repairer's submitted quotes.
func (h *QuoteHandler) MyQuotes(c echo.Context) error {
	repairerID, err := userID(c)
	if err != nil {
		return err
	}
	out, err := h.repairs.ListMyQuotes(c.Request().Context(), repairerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"quotes": toQuoteResponses(out)})
}
