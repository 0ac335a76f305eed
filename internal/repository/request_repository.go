package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mendo-app/backend/internal/model"
)

// RequestRepo provides CRUD and search operations for repair requests.
// Status changes driven by quote activity live in QuoteRepo, inside the same
// transaction as the quote writes; SetStatus here is the admin escape hatch.
type RequestRepo struct{ db *sql.DB }

// NewRequestRepo returns a RequestRepo bound to the given database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

const requestColumns = `r.id, r.title, r.description, r.category, COALESCE(r.subcategory,''),
	r.city, COALESCE(r.address,''), r.latitude, r.longitude, r.budget_min, r.budget_max,
	r.status, r.visibility, r.client_id, r.accepted_quote_id, r.created_at, r.updated_at`

func scanRequest(row interface{ Scan(...any) error }) (model.RepairRequest, error) {
	var rr model.RepairRequest
	var lat, lon sql.NullFloat64
	var bmin, bmax, accepted sql.NullInt64
	err := row.Scan(&rr.ID, &rr.Title, &rr.Description, &rr.Category, &rr.Subcategory,
		&rr.City, &rr.Address, &lat, &lon, &bmin, &bmax,
		&rr.Status, &rr.Visibility, &rr.ClientID, &accepted, &rr.CreatedAt, &rr.UpdatedAt)
	if err != nil {
		return model.RepairRequest{}, err
	}
	if lat.Valid {
		v := lat.Float64
		rr.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		rr.Longitude = &v
	}
	if bmin.Valid {
		v := bmin.Int64
		rr.BudgetMin = &v
	}
	if bmax.Valid {
		v := bmax.Int64
		rr.BudgetMax = &v
	}
	if accepted.Valid {
		v := uint64(accepted.Int64)
		rr.AcceptedQuoteID = &v
	}
	return rr, nil
}

// Create inserts a repair request and populates its ID and timestamps.
func (r *RequestRepo) Create(ctx context.Context, rr *model.RepairRequest) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO repair_requests
			(title, description, category, subcategory, city, address, latitude, longitude,
			 budget_min, budget_max, status, visibility, client_id)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rr.Title, rr.Description, rr.Category, nullStr(rr.Subcategory), rr.City, nullStr(rr.Address),
		nullF64(rr.Latitude), nullF64(rr.Longitude), nullI64(rr.BudgetMin), nullI64(rr.BudgetMax),
		rr.Status, rr.Visibility, rr.ClientID)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert request id: %w", err)
	}
	rr.ID = uint64(id)
	created, err := r.GetByID(ctx, rr.ID)
	if err != nil {
		return err
	}
	rr.CreatedAt = created.CreatedAt
	rr.UpdatedAt = created.UpdatedAt
	return nil
}

// GetByID fetches a single request.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (model.RepairRequest, error) {
	rr, err := scanRequest(r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM repair_requests r WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.RepairRequest{}, model.ErrRequestNotFound
	}
	if err != nil {
		return model.RepairRequest{}, fmt.Errorf("get request: %w", err)
	}
	return rr, nil
}

// GetSummary fetches a single request together with its quote count and the
// owning client's public fields.
func (r *RequestRepo) GetSummary(ctx context.Context, id uint64) (model.RequestSummary, error) {
	rows, err := r.summaries(ctx, "r.id = ?", "", 0, 0, id)
	if err != nil {
		return model.RequestSummary{}, err
	}
	if len(rows) == 0 {
		return model.RequestSummary{}, model.ErrRequestNotFound
	}
	return rows[0], nil
}

// Search returns the public listing, newest first, unpaginated.
func (r *RequestRepo) Search(ctx context.Context, f model.RequestFilter) ([]model.RequestSummary, error) {
	where := []string{}
	args := []any{}
	if f.Category != "" && f.Category != "all" {
		where = append(where, "r.category = ?")
		args = append(args, f.Category)
	}
	if f.City != "" {
		where = append(where, "LOWER(r.city) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.City)+"%")
	}
	if f.Status != "" && f.Status != "all" {
		where = append(where, "r.status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		where = append(where, "(LOWER(r.title) LIKE ? OR LOWER(r.description) LIKE ?)")
		needle := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, needle, needle)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return r.summaries(ctx, cond, "", 0, 0, args...)
}

// ListByClient returns every request owned by the client, newest first.
func (r *RequestRepo) ListByClient(ctx context.Context, clientID uint64) ([]model.RequestSummary, error) {
	return r.summaries(ctx, "r.client_id = ?", "", 0, 0, clientID)
}

// List returns a page of requests for the admin console, optionally filtered
// by status and category, with the total row count.
func (r *RequestRepo) List(ctx context.Context, status, category string, limit, offset int) ([]model.RequestSummary, int64, error) {
	where := []string{}
	args := []any{}
	if status != "" {
		where = append(where, "r.status = ?")
		args = append(args, status)
	}
	if category != "" {
		where = append(where, "r.category = ?")
		args = append(args, category)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM repair_requests r WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}
	rows, err := r.summaries(ctx, cond, "LIMIT ? OFFSET ?", limit, offset, args...)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// summaries runs the shared listing query. When page is non-empty, limit and
// offset are appended to the argument list.
func (r *RequestRepo) summaries(ctx context.Context, cond, page string, limit, offset int, args ...any) ([]model.RequestSummary, error) {
	q := `SELECT ` + requestColumns + `,
			(SELECT COUNT(*) FROM quotes q WHERE q.repair_request_id = r.id) AS quotes_count,
			u.username, COALESCE(u.city,'')
		FROM repair_requests r
		JOIN users u ON u.id = r.client_id
		WHERE ` + cond + `
		ORDER BY r.created_at DESC, r.id DESC`
	if page != "" {
		q += " " + page
		args = append(args, limit, offset)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []model.RequestSummary
	for rows.Next() {
		var s model.RequestSummary
		var lat, lon sql.NullFloat64
		var bmin, bmax, accepted sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Category, &s.Subcategory,
			&s.City, &s.Address, &lat, &lon, &bmin, &bmax,
			&s.Status, &s.Visibility, &s.ClientID, &accepted, &s.CreatedAt, &s.UpdatedAt,
			&s.QuotesCount, &s.ClientUsername, &s.ClientCity); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		if lat.Valid {
			v := lat.Float64
			s.Latitude = &v
		}
		if lon.Valid {
			v := lon.Float64
			s.Longitude = &v
		}
		if bmin.Valid {
			v := bmin.Int64
			s.BudgetMin = &v
		}
		if bmax.Valid {
			v := bmax.Int64
			s.BudgetMax = &v
		}
		if accepted.Valid {
			v := uint64(accepted.Int64)
			s.AcceptedQuoteID = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetStatus writes the status directly, bypassing the normal transitions.
// Admin-only; the caller is responsible for validating the value and logging
// the override.
func (r *RequestRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE repair_requests SET status=?, updated_at=UTC_TIMESTAMP() WHERE id=?`, status, id)
	if err != nil {
		return fmt.Errorf("set request status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the total number of repair requests.
func (r *RequestRepo) Count(ctx context.Context) (int64, error) {
	return r.countWhere(ctx, "1=1")
}

// CountByStatus returns the number of requests in the given status.
func (r *RequestRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	return r.countWhere(ctx, "status = ?", status)
}

// CountCreatedSince returns the number of requests created at or after t.
func (r *RequestRepo) CountCreatedSince(ctx context.Context, t time.Time) (int64, error) {
	return r.countWhere(ctx, "created_at >= ?", t.UTC())
}

func (r *RequestRepo) countWhere(ctx context.Context, cond string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM repair_requests WHERE `+cond, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return n, nil
}
