package repository

import (
	"context"
	"fmt"
	"time"

	"story-feed-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StoryRepository handles database operations for stories
type StoryRepository struct {
	db *pgxpool.Pool
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *pgxpool.Pool) *StoryRepository {
	return &StoryRepository{db: db}
}

// Create creates a new story
func (r *StoryRepository) Create(ctx context.Context, story *models.Story) error {
	query := `
		INSERT INTO stories (id, user_id, media_url, media_type, visibility, audience, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		story.ID, story.UserID, story.MediaURL, story.MediaType,
		story.Visibility, story.Audience, story.CreatedAt, story.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// GetByID retrieves a story by ID
func (r *StoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	query := `
		SELECT id, user_id, media_url, media_type, visibility, audience, created_at, expires_at
		FROM stories
		WHERE id = $1
	`
	var story models.Story
	err := r.db.QueryRow(ctx, query, id).Scan(
		&story.ID, &story.UserID, &story.MediaURL, &story.MediaType,
		&story.Visibility, &story.Audience, &story.CreatedAt, &story.ExpiresAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("story not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return &story, nil
}

// ListActive retrieves non-expired stories owned by the given users,
// newest first.
func (r *StoryRepository) ListActive(ctx context.Context, ownerIDs []string, now time.Time) ([]*models.Story, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, user_id, media_url, media_type, visibility, audience, created_at, expires_at
		FROM stories
		WHERE user_id = ANY($1) AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, ownerIDs, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active stories: %w", err)
	}
	defer rows.Close()

	return scanStories(rows)
}

// ListExpired retrieves every story past its expiry
func (r *StoryRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Story, error) {
	query := `
		SELECT id, user_id, media_url, media_type, visibility, audience, created_at, expires_at
		FROM stories
		WHERE expires_at <= $1
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired stories: %w", err)
	}
	defer rows.Close()

	return scanStories(rows)
}

// DeleteCascade deletes a story together with its view receipts and
// reactions in a single transaction. Deleting a story that is already gone
// is not an error.
func (r *StoryRepository) DeleteCascade(ctx context.Context, storyID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM story_views WHERE story_id = $1`, storyID); err != nil {
		return fmt.Errorf("failed to delete story views: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM story_reactions WHERE story_id = $1`, storyID); err != nil {
		return fmt.Errorf("failed to delete story reactions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM stories WHERE id = $1`, storyID); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit story delete: %w", err)
	}
	return nil
}

func scanStories(rows pgx.Rows) ([]*models.Story, error) {
	var stories []*models.Story
	for rows.Next() {
		var story models.Story
		err := rows.Scan(
			&story.ID, &story.UserID, &story.MediaURL, &story.MediaType,
			&story.Visibility, &story.Audience, &story.CreatedAt, &story.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, &story)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stories: %w", err)
	}

	return stories, nil
}
