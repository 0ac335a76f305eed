package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mendo-app/backend/internal/metrics"
	"github.com/mendo-app/backend/internal/model"
)

// Dashboard aggregates the counters shown on the admin home page.
type Dashboard struct {
	TotalUsers       int64            `json:"total_users"`
	TotalRequests    int64            `json:"total_requests"`
	TotalQuotes      int64            `json:"total_quotes"`
	UsersByRole      map[string]int64 `json:"users_by_role"`
	RequestsByStatus map[string]int64 `json:"requests_by_status"`
	RecentUsers      int64            `json:"recent_users"`
	RecentRequests   int64            `json:"recent_requests"`
	RecentQuotes     int64            `json:"recent_quotes"`
}

// Page is a generic paginated result.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

const defaultPerPage = 20

// AdminService implements the moderation surface: dashboard aggregates,
// paginated listings and the status override escape hatches.
type AdminService struct {
	users    UserStore
	requests RequestStore
	quotes   QuoteStore
	log      zerolog.Logger
}

func NewAdminService(users UserStore, requests RequestStore, quotes QuoteStore, log zerolog.Logger) *AdminService {
	return &AdminService{
		users:    users,
		requests: requests,
		quotes:   quotes,
		log:      log.With().Str("service", "admin").Logger(),
	}
}

// Dashboard computes the platform-wide counters plus 7-day activity.
func (s *AdminService) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	var err error

	if d.TotalUsers, err = s.users.Count(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.TotalRequests, err = s.requests.Count(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.TotalQuotes, err = s.quotes.Count(ctx); err != nil {
		return Dashboard{}, err
	}

	d.UsersByRole = make(map[string]int64, 3)
	for _, role := range []string{model.RoleClient, model.RoleRepairer, model.RoleAdmin} {
		n, err := s.users.CountByRole(ctx, role)
		if err != nil {
			return Dashboard{}, err
		}
		d.UsersByRole[role] = n
	}

	d.RequestsByStatus = make(map[string]int64, len(model.RequestStatuses))
	for _, status := range model.RequestStatuses {
		n, err := s.requests.CountByStatus(ctx, status)
		if err != nil {
			return Dashboard{}, err
		}
		d.RequestsByStatus[status] = n
	}

	since := time.Now().UTC().AddDate(0, 0, -7)
	if d.RecentUsers, err = s.users.CountCreatedSince(ctx, since); err != nil {
		return Dashboard{}, err
	}
	if d.RecentRequests, err = s.requests.CountCreatedSince(ctx, since); err != nil {
		return Dashboard{}, err
	}
	if d.RecentQuotes, err = s.quotes.CountCreatedSince(ctx, since); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// ListUsers returns a page of users, newest first.
func (s *AdminService) ListUsers(ctx context.Context, role, status string, page, perPage int) (Page[model.User], error) {
	page, perPage = normalizePage(page, perPage)
	items, total, err := s.users.List(ctx, role, status, perPage, (page-1)*perPage)
	if err != nil {
		return Page[model.User]{}, err
	}
	return Page[model.User]{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// ListRequests returns a page of requests, newest first.
func (s *AdminService) ListRequests(ctx context.Context, status, category string, page, perPage int) (Page[model.RequestSummary], error) {
	page, perPage = normalizePage(page, perPage)
	items, total, err := s.requests.List(ctx, status, category, perPage, (page-1)*perPage)
	if err != nil {
		return Page[model.RequestSummary]{}, err
	}
	return Page[model.RequestSummary]{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// ListQuotes returns a page of quotes, newest first.
func (s *AdminService) ListQuotes(ctx context.Context, status string, page, perPage int) (Page[model.Quote], error) {
	page, perPage = normalizePage(page, perPage)
	items, total, err := s.quotes.List(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return Page[model.Quote]{}, err
	}
	return Page[model.Quote]{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// SetUserStatus forces an account status, recording the override in the
// audit log.
func (s *AdminService) SetUserStatus(ctx context.Context, adminID, userID uint64, status string) error {
	if !model.ValidUserStatus(status) {
		return fmt.Errorf("%w: unknown user status %q", model.ErrValidation, status)
	}
	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		return err
	}
	metrics.AdminOverridesTotal.WithLabelValues("user").Inc()
	s.log.Info().
		Uint64("admin_id", adminID).
		Uint64("user_id", userID).
		Str("status", status).
		Msg("admin user status override")
	return nil
}

// SetRequestStatus forces a request status out of sequence, recording the
// override in the audit log.
func (s *AdminService) SetRequestStatus(ctx context.Context, adminID, requestID uint64, status string) error {
	if !model.ValidRequestStatus(status) {
		return fmt.Errorf("%w: unknown request status %q", model.ErrValidation, status)
	}
	if err := s.requests.SetStatus(ctx, requestID, status); err != nil {
		return err
	}
	metrics.AdminOverridesTotal.WithLabelValues("request").Inc()
	s.log.Info().
		Uint64("admin_id", adminID).
		Uint64("request_id", requestID).
		Str("status", status).
		Msg("admin request status override")
	return nil
}

// DeleteUserByEmail removes an account. Reports whether a row was deleted.
func (s *AdminService) DeleteUserByEmail(ctx context.Context, email string) (bool, error) {
	deleted, err := s.users.DeleteByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Warn().Str("email", email).Msg("user deleted via maintenance endpoint")
	}
	return deleted, nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = defaultPerPage
	}
	return page, perPage
}
