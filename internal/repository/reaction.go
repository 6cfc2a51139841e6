package repository

import (
	"context"
	"fmt"

	"story-feed-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReactionRepository handles database operations for story reactions
type ReactionRepository struct {
	db *pgxpool.Pool
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *pgxpool.Pool) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// GetByStoryAndUser retrieves the user's reaction on a story, or nil when
// the user has not reacted.
func (r *ReactionRepository) GetByStoryAndUser(ctx context.Context, storyID, userID string) (*models.StoryReaction, error) {
	query := `
		SELECT id, story_id, user_id, kind, created_at
		FROM story_reactions
		WHERE story_id = $1 AND user_id = $2
	`
	var reaction models.StoryReaction
	err := r.db.QueryRow(ctx, query, storyID, userID).Scan(
		&reaction.ID, &reaction.StoryID, &reaction.UserID, &reaction.Kind, &reaction.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reaction: %w", err)
	}
	return &reaction, nil
}

// Insert creates a new reaction
func (r *ReactionRepository) Insert(ctx context.Context, reaction *models.StoryReaction) error {
	query := `
		INSERT INTO story_reactions (id, story_id, user_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		reaction.ID, reaction.StoryID, reaction.UserID, reaction.Kind, reaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reaction: %w", err)
	}
	return nil
}

// UpdateKind replaces the kind of an existing reaction in place
func (r *ReactionRepository) UpdateKind(ctx context.Context, id, kind string) error {
	query := `UPDATE story_reactions SET kind = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, kind, id)
	if err != nil {
		return fmt.Errorf("failed to update reaction: %w", err)
	}
	return nil
}

// Delete removes a reaction. Deleting an already-deleted reaction is not
// an error.
func (r *ReactionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM story_reactions WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}
	return nil
}

// ListByStory retrieves all reactions on a story
func (r *ReactionRepository) ListByStory(ctx context.Context, storyID string) ([]*models.StoryReaction, error) {
	query := `
		SELECT id, story_id, user_id, kind, created_at
		FROM story_reactions
		WHERE story_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer rows.Close()

	var reactions []*models.StoryReaction
	for rows.Next() {
		var reaction models.StoryReaction
		err := rows.Scan(&reaction.ID, &reaction.StoryID, &reaction.UserID, &reaction.Kind, &reaction.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reactions = append(reactions, &reaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reactions: %w", err)
	}

	return reactions, nil
}
