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

// UserRepo provides CRUD operations for the users table. Usernames are kept
// as given; emails are normalized to lower case before any read or write.
type UserRepo struct{ db *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, username, email, password_hash, role, status,
	COALESCE(city,''), COALESCE(bio,''), COALESCE(phone,''), COALESCE(avatar_url,''),
	created_at, verified_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	var verifiedAt sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
		&u.City, &u.Bio, &u.Phone, &u.AvatarURL, &u.CreatedAt, &verifiedAt)
	if err != nil {
		return model.User{}, err
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.VerifiedAt = &t
	}
	return u, nil
}

// Create inserts the user and populates its generated ID and CreatedAt.
// Duplicate username or email rows surface as model.ErrUsernameTaken /
// model.ErrEmailTaken based on which unique key tripped.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role, status, city, bio, phone, avatar_url)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, u.Role, u.Status,
		nullStr(u.City), nullStr(u.Bio), nullStr(u.Phone), nullStr(u.AvatarURL))
	if err != nil {
		if isDuplicate(err) {
			if strings.Contains(err.Error(), "uq_users_email") {
				return model.ErrEmailTaken
			}
			return model.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user id: %w", err)
	}
	u.ID = uint64(id)
	created, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	u.CreatedAt = created.CreatedAt
	return nil
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// UpdateProfile persists the mutable profile fields (username, role, city,
// bio, phone, avatar). Username collisions surface as model.ErrUsernameTaken.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET username=?, role=?, city=?, bio=?, phone=?, avatar_url=? WHERE id=?`,
		u.Username, u.Role, nullStr(u.City), nullStr(u.Bio), nullStr(u.Phone), nullStr(u.AvatarURL), u.ID)
	if err != nil {
		if isDuplicate(err) {
			return model.ErrUsernameTaken
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateStatus sets the account status. When activating an account that has
// never been verified, verified_at is stamped in the same statement.
func (r *UserRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET status=?,
			verified_at = IF(? = 'active' AND verified_at IS NULL, UTC_TIMESTAMP(), verified_at)
		 WHERE id=?`, status, status, id)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// MarkVerified stamps verified_at and activates accounts that were waiting
// for email verification. Already-verified users are left untouched.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET
			verified_at = COALESCE(verified_at, ?),
			status = IF(status = 'pending_verification', 'active', status)
		 WHERE id=?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ListActiveRepairers returns every active repairer, for new-request fanout.
func (r *UserRepo) ListActiveRepairers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role='repairer' AND status='active'`)
	if err != nil {
		return nil, fmt.Errorf("list repairers: %w", err)
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repairer: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// List returns a page of users, newest first, optionally filtered by role
// and status, together with the total row count for pagination.
func (r *UserRepo) List(ctx context.Context, role, status string, limit, offset int) ([]model.User, int64, error) {
	where := []string{}
	args := []any{}
	if role != "" {
		where = append(where, "role = ?")
		args = append(args, role)
	}
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, status)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	argsData := append(append([]any{}, args...), limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+cond+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		argsData...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// DeleteByEmail hard-deletes a user row. This exists only for the
// token-guarded maintenance endpoint; normal flows never delete users.
func (r *UserRepo) DeleteByEmail(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return r.countWhere(ctx, "1=1")
}

// CountByRole returns the number of users holding the given role.
func (r *UserRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	return r.countWhere(ctx, "role = ?", role)
}

// CountCreatedSince returns the number of users registered at or after t.
func (r *UserRepo) CountCreatedSince(ctx context.Context, t time.Time) (int64, error) {
	return r.countWhere(ctx, "created_at >= ?", t.UTC())
}

func (r *UserRepo) countWhere(ctx context.Context, cond string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
