package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mendo-app/backend/internal/metrics"
	"github.com/mendo-app/backend/internal/model"
)

// CreateRequestInput carries the fields of a new repair request.
type CreateRequestInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	City        string   `json:"city"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	BudgetMin   *int64   `json:"budget_min"`
	BudgetMax   *int64   `json:"budget_max"`
	Visibility  string   `json:"visibility"`
}

// SubmitQuoteInput carries the fields of a new quote. Price is the decimal
// currency amount as entered; it is converted to cents on the way in.
type SubmitQuoteInput struct {
	RepairRequestID   uint64  `json:"repair_request_id"`
	Price             float64 `json:"price"`
	EstimatedDuration string  `json:"estimated_duration"`
	Conditions        string  `json:"conditions"`
	LocationType      string  `json:"location_type"`
}

// RequestDetail is the full view of one request: the summary row, every
// quote against it and every attached photo.
type RequestDetail struct {
	model.RequestSummary
	Quotes []model.Quote
	Images []model.RepairImage
}

// RepairService implements the marketplace core: posting requests, quoting
// and acceptance.
type RepairService struct {
	users    UserStore
	requests RequestStore
	quotes   QuoteStore
	images   ImageStore
	notifier Notifier
	log      zerolog.Logger
}

func NewRepairService(users UserStore, requests RequestStore, quotes QuoteStore, images ImageStore, notifier Notifier, log zerolog.Logger) *RepairService {
	return &RepairService{
		users:    users,
		requests: requests,
		quotes:   quotes,
		images:   images,
		notifier: notifier,
		log:      log.With().Str("service", "repair").Logger(),
	}
}

// CreateRequest posts a new repair request for the client and fans out the
// notification to every active repairer.
func (s *RepairService) CreateRequest(ctx context.Context, clientID uint64, in CreateRequestInput) (model.RepairRequest, error) {
	for _, f := range []struct{ name, value string }{
		{"title", in.Title},
		{"description", in.Description},
		{"category", in.Category},
		{"city", in.City},
	} {
		if strings.TrimSpace(f.value) == "" {
			return model.RepairRequest{}, fmt.Errorf("%w: %s is required", model.ErrValidation, f.name)
		}
	}
	visibility := in.Visibility
	switch visibility {
	case "":
		visibility = model.VisibilityPublic
	case model.VisibilityPublic, model.VisibilityPrivate:
	default:
		return model.RepairRequest{}, fmt.Errorf("%w: visibility must be public or private", model.ErrValidation)
	}
	if in.BudgetMin != nil && in.BudgetMax != nil && *in.BudgetMin > *in.BudgetMax {
		return model.RepairRequest{}, fmt.Errorf("%w: budget_min cannot exceed budget_max", model.ErrValidation)
	}

	req := model.RepairRequest{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Subcategory: strings.TrimSpace(in.Subcategory),
		City:        strings.TrimSpace(in.City),
		Address:     strings.TrimSpace(in.Address),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		BudgetMin:   in.BudgetMin,
		BudgetMax:   in.BudgetMax,
		Status:      model.RequestOpen,
		Visibility:  visibility,
		ClientID:    clientID,
	}
	if err := s.requests.Create(ctx, &req); err != nil {
		return model.RepairRequest{}, err
	}
	metrics.RequestsCreatedTotal.Inc()

	client, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		s.log.Error().Err(err).Uint64("client_id", clientID).Msg("load client for fanout")
		return req, nil
	}
	repairers, err := s.users.ListActiveRepairers(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list repairers for fanout")
		return req, nil
	}
	s.notifier.RequestCreated(ctx, req, client, repairers)
	return req, nil
}

// SubmitQuote records a repairer's offer against an open or quoted request.
func (s *RepairService) SubmitQuote(ctx context.Context, repairerID uint64, in SubmitQuoteInput) (model.Quote, error) {
	actor, err := s.users.GetByID(ctx, repairerID)
	if err != nil {
		return model.Quote{}, err
	}
	if !actor.IsRepairer() {
		return model.Quote{}, model.ErrForbidden
	}
	if in.Price <= 0 {
		return model.Quote{}, fmt.Errorf("%w: price must be positive", model.ErrValidation)
	}
	if strings.TrimSpace(in.EstimatedDuration) == "" {
		return model.Quote{}, fmt.Errorf("%w: estimated_duration is required", model.ErrValidation)
	}
	location := in.LocationType
	switch location {
	case "":
		location = model.LocationDomicile
	case model.LocationDomicile, model.LocationAtelier:
	default:
		return model.Quote{}, fmt.Errorf("%w: location_type must be domicile or atelier", model.ErrValidation)
	}

	q := model.Quote{
		RepairRequestID:   in.RepairRequestID,
		RepairerID:        repairerID,
		PriceCents:        model.ToCents(in.Price),
		EstimatedDuration: strings.TrimSpace(in.EstimatedDuration),
		Conditions:        strings.TrimSpace(in.Conditions),
		LocationType:      location,
		Status:            model.QuotePending,
	}
	if err := s.quotes.CreateForOpenRequest(ctx, &q); err != nil {
		return model.Quote{}, err
	}
	metrics.QuotesSubmittedTotal.Inc()

	req, err := s.requests.GetByID(ctx, q.RepairRequestID)
	if err != nil {
		s.log.Error().Err(err).Uint64("request_id", q.RepairRequestID).Msg("load request for quote notification")
		return q, nil
	}
	client, err := s.users.GetByID(ctx, req.ClientID)
	if err != nil {
		s.log.Error().Err(err).Uint64("client_id", req.ClientID).Msg("load client for quote notification")
		return q, nil
	}
	s.notifier.QuoteSubmitted(ctx, q, req, client, actor)
	return q, nil
}

// AcceptQuote accepts a quote on behalf of the request's owner. The store
// rejects every sibling quote and advances the request atomically.
func (s *RepairService) AcceptQuote(ctx context.Context, clientID, quoteID uint64) (model.Quote, error) {
	q, err := s.quotes.Accept(ctx, quoteID, clientID)
	if err != nil {
		return model.Quote{}, err
	}
	metrics.QuotesAcceptedTotal.Inc()

	req, err := s.requests.GetByID(ctx, q.RepairRequestID)
	if err != nil {
		s.log.Error().Err(err).Uint64("request_id", q.RepairRequestID).Msg("load request for accept notification")
		return q, nil
	}
	client, cerr := s.users.GetByID(ctx, clientID)
	repairer, rerr := s.users.GetByID(ctx, q.RepairerID)
	if cerr != nil || rerr != nil {
		s.log.Error().AnErr("client", cerr).AnErr("repairer", rerr).Msg("load parties for accept notification")
		return q, nil
	}
	s.notifier.QuoteAccepted(ctx, q, req, client, repairer)
	return q, nil
}

// ListRequests returns the public listing. An empty status filter defaults
// to open requests, matching the browse page.
func (s *RepairService) ListRequests(ctx context.Context, f model.RequestFilter) ([]model.RequestSummary, error) {
	if f.Status == "" {
		f.Status = model.RequestOpen
	}
	return s.requests.Search(ctx, f)
}

// GetRequest returns one request with its quotes and photos.
func (s *RepairService) GetRequest(ctx context.Context, id uint64) (RequestDetail, error) {
	sum, err := s.requests.GetSummary(ctx, id)
	if err != nil {
		return RequestDetail{}, err
	}
	quotes, err := s.quotes.ListByRequest(ctx, id)
	if err != nil {
		return RequestDetail{}, err
	}
	images, err := s.images.ListByRequest(ctx, id)
	if err != nil {
		return RequestDetail{}, err
	}
	return RequestDetail{RequestSummary: sum, Quotes: quotes, Images: images}, nil
}

// ListMyRequests returns every request owned by the client, newest first.
func (s *RepairService) ListMyRequests(ctx context.Context, clientID uint64) ([]model.RequestSummary, error) {
	return s.requests.ListByClient(ctx, clientID)
}

// ListMyQuotes returns every quote the repairer has submitted, newest first.
func (s *RepairService) ListMyQuotes(ctx context.Context, repairerID uint64) ([]model.Quote, error) {
	return s.quotes.ListByRepairer(ctx, repairerID)
}

// AttachImage records an uploaded photo against a request. Only the owning
// client may attach photos, and only before the request is closed.
func (s *RepairService) AttachImage(ctx context.Context, userID, requestID uint64, filename, url string) (model.RepairImage, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return model.RepairImage{}, err
	}
	if req.ClientID != userID {
		return model.RepairImage{}, model.ErrForbidden
	}
	if req.Status == model.RequestClosed {
		return model.RepairImage{}, model.ErrRequestClosed
	}
	img := model.RepairImage{
		RepairRequestID: requestID,
		Filename:        filename,
		URL:             url,
	}
	if err := s.images.Create(ctx, &img); err != nil {
		return model.RepairImage{}, err
	}
	return img, nil
}
