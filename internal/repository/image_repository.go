package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mendo-app/backend/internal/model"
)

// ImageRepo stores the photos attached to repair requests. Images are
// additive only; nothing ever updates or deletes a row.
type ImageRepo struct{ db *sql.DB }

// NewImageRepo returns an ImageRepo bound to the given database.
func NewImageRepo(db *sql.DB) *ImageRepo { return &ImageRepo{db: db} }

// Create inserts an image row and populates its generated ID.
func (r *ImageRepo) Create(ctx context.Context, img *model.RepairImage) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO repair_images (repair_request_id, filename, url) VALUES (?,?,?)`,
		img.RepairRequestID, img.Filename, img.URL)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert image id: %w", err)
	}
	img.ID = uint64(id)
	return nil
}

// ListByRequest returns the images attached to a request, oldest first.
func (r *ImageRepo) ListByRequest(ctx context.Context, requestID uint64) ([]model.RepairImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, repair_request_id, filename, url, created_at
		 FROM repair_images WHERE repair_request_id = ? ORDER BY created_at ASC, id ASC`,
		requestID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()
	var out []model.RepairImage
	for rows.Next() {
		var img model.RepairImage
		if err := rows.Scan(&img.ID, &img.RepairRequestID, &img.Filename, &img.URL, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}
