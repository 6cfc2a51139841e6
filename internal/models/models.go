package models

import "time"

// MediaType is the kind of media a story carries
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Visibility controls who can see a story
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityFriends  Visibility = "friends"
	VisibilitySelected Visibility = "selected" // only the users listed in Audience
	VisibilityExcluded Visibility = "excluded" // friends except the users listed in Audience
)

// User represents a user in the system
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url"`
	PushToken *string   `json:"push_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FriendStatus is the state of a friendship request
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
)

// Friendship represents a friend request from UserID to FriendID
type Friendship struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	FriendID  string       `json:"friend_id"`
	Status    FriendStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Story represents a single posted media item. A story is eligible for
// display while now < ExpiresAt; once expired it is deleted by the sweeper
// together with every row referencing it.
type Story struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	MediaURL   string     `json:"media_url"`
	MediaType  MediaType  `json:"media_type"`
	Visibility Visibility `json:"visibility"`
	Audience   []string   `json:"audience,omitempty"` // user ids for selected/excluded
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// StoryView is a view receipt, unique per (story, viewer). Created the first
// time a viewer opens a story; only used to compute unseen flags.
type StoryView struct {
	StoryID  string    `json:"story_id"`
	ViewerID string    `json:"viewer_id"`
	ViewedAt time.Time `json:"viewed_at"`
}

// StoryReaction is an ephemeral per-story reaction, at most one per
// (story, user). Re-reacting with the same kind removes it, a different
// kind replaces it.
type StoryReaction struct {
	ID        string    `json:"id"`
	StoryID   string    `json:"story_id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// StoryEvent is a realtime change notification for the story table
type StoryEvent struct {
	Type    string `json:"type"` // story_created | story_deleted
	StoryID string `json:"story_id"`
	UserID  string `json:"user_id"`
}
