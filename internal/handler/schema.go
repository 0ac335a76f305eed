package handler

import (
	"time"

	"github.com/mendo-app/backend/internal/model"
	"github.com/mendo-app/backend/internal/service"
)

// Response schemas. The model structs carry no json tags on purpose; the
// wire shape is owned here, and sensitive columns (password_hash) never
// leave the server.

type userResponse struct {
	ID         uint64     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	City       string     `json:"city,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		Status:     u.Status,
		City:       u.City,
		Bio:        u.Bio,
		Phone:      u.Phone,
		AvatarURL:  u.AvatarURL,
		CreatedAt:  u.CreatedAt,
		VerifiedAt: u.VerifiedAt,
	}
}

func toUserResponses(users []model.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

type requestResponse struct {
	ID              uint64    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Subcategory     string    `json:"subcategory,omitempty"`
	City            string    `json:"city"`
	Address         string    `json:"address,omitempty"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	BudgetMin       *int64    `json:"budget_min,omitempty"`
	BudgetMax       *int64    `json:"budget_max,omitempty"`
	Status          string    `json:"status"`
	Visibility      string    `json:"visibility"`
	ClientID        uint64    `json:"client_id"`
	AcceptedQuoteID *uint64   `json:"accepted_quote_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toRequestResponse(r model.RepairRequest) requestResponse {
	return requestResponse{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Subcategory:     r.Subcategory,
		City:            r.City,
		Address:         r.Address,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		BudgetMin:       r.BudgetMin,
		BudgetMax:       r.BudgetMax,
		Status:          r.Status,
		Visibility:      r.Visibility,
		ClientID:        r.ClientID,
		AcceptedQuoteID: r.AcceptedQuoteID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type summaryResponse struct {
	requestResponse
	QuotesCount    int64  `json:"quotes_count"`
	ClientUsername string `json:"client_username"`
	ClientCity     string `json:"client_city,omitempty"`
}

func toSummaryResponse(s model.RequestSummary) summaryResponse {
	return summaryResponse{
		requestResponse: toRequestResponse(s.RepairRequest),
		QuotesCount:     s.QuotesCount,
		ClientUsername:  s.ClientUsername,
		ClientCity:      s.ClientCity,
	}
}

func toSummaryResponses(in []model.RequestSummary) []summaryResponse {
	out := make([]summaryResponse, 0, len(in))
	for _, s := range in {
		out = append(out, toSummaryResponse(s))
	}
	return out
}

type quoteResponse struct {
	ID                uint64    `json:"id"`
	RepairRequestID   uint64    `json:"repair_request_id"`
	RepairerID        uint64    `json:"repairer_id"`
	Price             float64   `json:"price"`
	PriceCents        int64     `json:"price_cents"`
	EstimatedDuration string    `json:"estimated_duration"`
	Conditions        string    `json:"conditions,omitempty"`
	LocationType      string    `json:"location_type"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func toQuoteResponse(q model.Quote) quoteResponse {
	return quoteResponse{
		ID:                q.ID,
		RepairRequestID:   q.RepairRequestID,
		RepairerID:        q.RepairerID,
		Price:             q.Price(),
		PriceCents:        q.PriceCents,
		EstimatedDuration: q.EstimatedDuration,
		Conditions:        q.Conditions,
		LocationType:      q.LocationType,
		Status:            q.Status,
		CreatedAt:         q.CreatedAt,
	}
}

func toQuoteResponses(in []model.Quote) []quoteResponse {
	out := make([]quoteResponse, 0, len(in))
	for _, q := range in {
		out = append(out, toQuoteResponse(q))
	}
	return out
}

type imageResponse struct {
	ID        uint64    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func toImageResponses(in []model.RepairImage) []imageResponse {
	out := make([]imageResponse, 0, len(in))
	for _, img := range in {
		out = append(out, imageResponse{ID: img.ID, URL: img.URL, CreatedAt: img.CreatedAt})
	}
	return out
}

type detailResponse struct {
	summaryResponse
	Quotes []quoteResponse `json:"quotes"`
	Images []imageResponse `json:"images"`
}

func toDetailResponse(d service.RequestDetail) detailResponse {
	return detailResponse{
		summaryResponse: toSummaryResponse(d.RequestSummary),
		Quotes:          toQuoteResponses(d.Quotes),
		Images:          toImageResponses(d.Images),
	}
}
