// Package service implements the application's use cases on top of narrow
// store interfaces. The interfaces are defined here, on the consumer side,
// and satisfied by the repository structs; tests substitute in-memory stubs.
package service

import (
	"context"
	"time"

	"github.com/mendo-app/backend/internal/model"
)

// UserStore is the persistence surface the services need for users.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	UpdateStatus(ctx context.Context, id uint64, status string) error
	MarkVerified(ctx context.Context, id uint64, at time.Time) error
	ListActiveRepairers(ctx context.Context) ([]model.User, error)
	List(ctx context.Context, role, status string, limit, offset int) ([]model.User, int64, error)
	DeleteByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	CountCreatedSince(ctx context.Context, t time.Time) (int64, error)
}

// RequestStore is the persistence surface for repair requests.
type RequestStore interface {
	Create(ctx context.Context, rr *model.RepairRequest) error
	GetByID(ctx context.Context, id uint64) (model.RepairRequest, error)
	GetSummary(ctx context.Context, id uint64) (model.RequestSummary, error)
	Search(ctx context.Context, f model.RequestFilter) ([]model.RequestSummary, error)
	ListByClient(ctx context.Context, clientID uint64) ([]model.RequestSummary, error)
	List(ctx context.Context, status, category string, limit, offset int) ([]model.RequestSummary, int64, error)
	SetStatus(ctx context.Context, id uint64, status string) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountCreatedSince(ctx context.Context, t time.Time) (int64, error)
}

// QuoteStore is the persistence surface for quotes. CreateForOpenRequest and
// Accept encapsulate the two transactional lifecycle flows.
type QuoteStore interface {
	CreateForOpenRequest(ctx context.Context, q *model.Quote) error
	Accept(ctx context.Context, quoteID, clientID uint64) (model.Quote, error)
	GetByID(ctx context.Context, id uint64) (model.Quote, error)
	ListByRequest(ctx context.Context, requestID uint64) ([]model.Quote, error)
	ListByRepairer(ctx context.Context, repairerID uint64) ([]model.Quote, error)
	List(ctx context.Context, status string, limit, offset int) ([]model.Quote, int64, error)
	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, t time.Time) (int64, error)
}

// ImageStore is the persistence surface for request photos.
type ImageStore interface {
	Create(ctx context.Context, img *model.RepairImage) error
	ListByRequest(ctx context.Context, requestID uint64) ([]model.RepairImage, error)
}

// Notifier is the outbound-notification surface. Implementations are
// fire-and-forget: they log their own failures and never return an error,
// so services can call them after commit without ceremony.
type Notifier interface {
	Welcome(ctx context.Context, u model.User, verifyURL string)
	RequestCreated(ctx context.Context, req model.RepairRequest, client model.User, repairers []model.User)
	QuoteSubmitted(ctx context.Context, q model.Quote, req model.RepairRequest, client, repairer model.User)
	QuoteAccepted(ctx context.Context, q model.Quote, req model.RepairRequest, client, repairer model.User)
	AdminAlert(ctx context.Context, subject, body string)
}
