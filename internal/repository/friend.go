package repository

import (
	"context"
	"fmt"

	"story-feed-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendRepository handles database operations for friendships
type FriendRepository struct {
	db *pgxpool.Pool
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{db: db}
}

// Create creates a pending friendship request
func (r *FriendRepository) Create(ctx context.Context, f *models.Friendship) error {
	query := `
		INSERT INTO friendships (id, user_id, friend_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, f.ID, f.UserID, f.FriendID, f.Status, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// Accept marks the pending request from requesterID to userID as accepted
func (r *FriendRepository) Accept(ctx context.Context, userID, requesterID string) error {
	query := `
		UPDATE friendships SET status = $1
		WHERE user_id = $2 AND friend_id = $3 AND status = $4
	`
	result, err := r.db.Exec(ctx, query, models.FriendAccepted, requesterID, userID, models.FriendPending)
	if err != nil {
		return fmt.Errorf("failed to accept friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("friend request not found")
	}
	return nil
}

// Exists checks whether a friendship row in either direction already exists
func (r *FriendRepository) Exists(ctx context.Context, userID, friendID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID, friendID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship existence: %w", err)
	}
	return exists, nil
}

// ListAcceptedIDs retrieves the ids of every accepted friend of a user
func (r *FriendRepository) ListAcceptedIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT CASE WHEN user_id = $1 THEN friend_id ELSE user_id END
		FROM friendships
		WHERE (user_id = $1 OR friend_id = $1) AND status = $2
	`
	rows, err := r.db.Query(ctx, query, userID, models.FriendAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}

	return ids, nil
}

// Delete removes a friendship in either direction
func (r *FriendRepository) Delete(ctx context.Context, userID, friendID string) error {
	query := `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`
	_, err := r.db.Exec(ctx, query, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	return nil
}
