package services

import (
	"context"
	"time"

	"story-feed-backend/internal/models"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them; tests substitute in-memory fakes.

// StoryStore persists stories
type StoryStore interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id string) (*models.Story, error)
	ListActive(ctx context.Context, ownerIDs []string, now time.Time) ([]*models.Story, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.Story, error)
	DeleteCascade(ctx context.Context, storyID string) error
}

// ViewStore persists view receipts
type ViewStore interface {
	Insert(ctx context.Context, storyID, viewerID string, viewedAt time.Time) error
	ListStoryIDsByViewer(ctx context.Context, viewerID string) ([]string, error)
}

// ReactionStore persists story reactions
type ReactionStore interface {
	GetByStoryAndUser(ctx context.Context, storyID, userID string) (*models.StoryReaction, error)
	Insert(ctx context.Context, reaction *models.StoryReaction) error
	UpdateKind(ctx context.Context, id, kind string) error
	Delete(ctx context.Context, id string) error
	ListByStory(ctx context.Context, storyID string) ([]*models.StoryReaction, error)
}

// FriendStore reads friendships
type FriendStore interface {
	ListAcceptedIDs(ctx context.Context, userID string) ([]string, error)
}

// ProfileStore reads user profiles
type ProfileStore interface {
	ListByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}
