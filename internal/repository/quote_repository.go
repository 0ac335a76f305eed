package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mendo-app/backend/internal/model"
)

// QuoteRepo provides CRUD operations for quotes. The two lifecycle flows that
// touch quotes and their request together — submitting a quote against an
// open request and accepting a quote — run as single transactions with the
// request row locked, so concurrent callers serialize on the row lock and no
// partial state is ever observable.
type QuoteRepo struct{ db *sql.DB }

// NewQuoteRepo returns a QuoteRepo bound to the given database.
func NewQuoteRepo(db *sql.DB) *QuoteRepo { return &QuoteRepo{db: db} }

const quoteColumns = `id, repair_request_id, repairer_id, price_cents,
	COALESCE(estimated_duration,''), COALESCE(conditions,''), location_type, status, created_at`

func scanQuote(row interface{ Scan(...any) error }) (model.Quote, error) {
	var q model.Quote
	err := row.Scan(&q.ID, &q.RepairRequestID, &q.RepairerID, &q.PriceCents,
		&q.EstimatedDuration, &q.Conditions, &q.LocationType, &q.Status, &q.CreatedAt)
	return q, err
}

// CreateForOpenRequest inserts the quote and, in the same transaction,
// advances the request from open to quoted. The request row is locked first:
// a missing request yields model.ErrRequestNotFound, and a request past the
// quoting window (anything beyond open or quoted) yields
// model.ErrRequestClosed, with no quote row written in either case.
func (r *QuoteRepo) CreateForOpenRequest(ctx context.Context, q *model.Quote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submit quote: %w", err)
	}
	committed := false
	defer rollbackUnless(&committed, tx)

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM repair_requests WHERE id = ? FOR UPDATE`,
		q.RepairRequestID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("lock request: %w", err)
	}
	if status != model.RequestOpen && status != model.RequestQuoted {
		return model.ErrRequestClosed
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO quotes (repair_request_id, repairer_id, price_cents, estimated_duration, conditions, location_type, status)
		 VALUES (?,?,?,?,?,?,?)`,
		q.RepairRequestID, q.RepairerID, q.PriceCents,
		nullStr(q.EstimatedDuration), nullStr(q.Conditions), q.LocationType, model.QuotePending)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert quote id: %w", err)
	}
	q.ID = uint64(id)
	q.Status = model.QuotePending

	if _, err := tx.ExecContext(ctx,
		`UPDATE repair_requests SET status=?, updated_at=UTC_TIMESTAMP() WHERE id=?`,
		model.RequestQuoted, q.RepairRequestID); err != nil {
		return fmt.Errorf("advance request to quoted: %w", err)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM quotes WHERE id = ?`, q.ID).Scan(&q.CreatedAt); err != nil {
		return fmt.Errorf("reload quote: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submit quote: %w", err)
	}
	committed = true
	return nil
}

// Accept performs the quote-acceptance transaction: the target quote becomes
// accepted, its request gets status=accepted and accepted_quote_id, and every
// sibling quote is rejected. All three writes commit atomically. clientID
// must own the request, otherwise model.ErrForbidden and nothing changes.
func (r *QuoteRepo) Accept(ctx context.Context, quoteID, clientID uint64) (model.Quote, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("begin accept quote: %w", err)
	}
	committed := false
	defer rollbackUnless(&committed, tx)

	// Locks the quote and its request in one statement so concurrent accepts
	// on the same request serialize here.
	var requestID, ownerID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT q.repair_request_id, r.client_id
		 FROM quotes q JOIN repair_requests r ON r.id = q.repair_request_id
		 WHERE q.id = ? FOR UPDATE`, quoteID).Scan(&requestID, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Quote{}, model.ErrQuoteNotFound
	}
	if err != nil {
		return model.Quote{}, fmt.Errorf("lock quote: %w", err)
	}
	if ownerID != clientID {
		return model.Quote{}, model.ErrForbidden
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE quotes SET status=? WHERE id=?`, model.QuoteAccepted, quoteID); err != nil {
		return model.Quote{}, fmt.Errorf("accept quote: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE quotes SET status=? WHERE repair_request_id=? AND id<>?`,
		model.QuoteRejected, requestID, quoteID); err != nil {
		return model.Quote{}, fmt.Errorf("reject sibling quotes: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE repair_requests SET status=?, accepted_quote_id=?, updated_at=UTC_TIMESTAMP() WHERE id=?`,
		model.RequestAccepted, quoteID, requestID); err != nil {
		return model.Quote{}, fmt.Errorf("mark request accepted: %w", err)
	}

	q, err := scanQuote(tx.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, quoteID))
	if err != nil {
		return model.Quote{}, fmt.Errorf("reload quote: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Quote{}, fmt.Errorf("commit accept quote: %w", err)
	}
	committed = true
	return q, nil
}

// GetByID fetches a single quote.
func (r *QuoteRepo) GetByID(ctx context.Context, id uint64) (model.Quote, error) {
	q, err := scanQuote(r.db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Quote{}, model.ErrQuoteNotFound
	}
	if err != nil {
		return model.Quote{}, fmt.Errorf("get quote: %w", err)
	}
	return q, nil
}

// ListByRequest returns every quote on a request, oldest first.
func (r *QuoteRepo) ListByRequest(ctx context.Context, requestID uint64) ([]model.Quote, error) {
	return r.list(ctx, `repair_request_id = ? ORDER BY created_at ASC, id ASC`, requestID)
}

// ListByRepairer returns every quote submitted by a repairer, newest first.
func (r *QuoteRepo) ListByRepairer(ctx context.Context, repairerID uint64) ([]model.Quote, error) {
	return r.list(ctx, `repairer_id = ? ORDER BY created_at DESC, id DESC`, repairerID)
}

func (r *QuoteRepo) list(ctx context.Context, tail string, args ...any) ([]model.Quote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()
	var out []model.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// List returns a page of quotes for the admin console, newest first,
// optionally filtered by status, with the total row count.
func (r *QuoteRepo) List(ctx context.Context, status string, limit, offset int) ([]model.Quote, int64, error) {
	cond := "1=1"
	args := []any{}
	if status != "" {
		cond = "status = ?"
		args = append(args, status)
	}
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quotes WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}
	args = append(args, limit, offset)
	out, err := r.list(ctx, cond+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Count returns the total number of quotes.
func (r *QuoteRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count quotes: %w", err)
	}
	return n, nil
}

// CountCreatedSince returns the number of quotes created at or after t.
func (r *QuoteRepo) CountCreatedSince(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quotes WHERE created_at >= ?`, t.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count quotes: %w", err)
	}
	return n, nil
}
