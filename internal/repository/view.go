package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ViewRepository handles database operations for story view receipts
type ViewRepository struct {
	db *pgxpool.Pool
}

// NewViewRepository creates a new view repository
func NewViewRepository(db *pgxpool.Pool) *ViewRepository {
	return &ViewRepository{db: db}
}

// Insert records a view receipt. A repeat view of the same story by the
// same viewer is ignored, so the call is idempotent.
func (r *ViewRepository) Insert(ctx context.Context, storyID, viewerID string, viewedAt time.Time) error {
	query := `
		INSERT INTO story_views (story_id, viewer_id, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (story_id, viewer_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, storyID, viewerID, viewedAt)
	if err != nil {
		return fmt.Errorf("failed to insert view receipt: %w", err)
	}
	return nil
}

// ListStoryIDsByViewer retrieves the ids of every story the viewer has opened
func (r *ViewRepository) ListStoryIDsByViewer(ctx context.Context, viewerID string) ([]string, error) {
	query := `SELECT story_id FROM story_views WHERE viewer_id = $1`
	rows, err := r.db.Query(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list view receipts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan view receipt: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating view receipts: %w", err)
	}

	return ids, nil
}
