package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"story-feed-backend/internal/models"
	"story-feed-backend/internal/playback"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Uploader issues pre-signed upload slots for story media
type Uploader interface {
	PresignUpload(ctx context.Context, userID, contentType string) (*UploadTicket, error)
}

// StoryNotifier receives story table change events and knows which users
// already have a live realtime connection.
type StoryNotifier interface {
	StoryChanged(event models.StoryEvent)
	IsOnline(userID string) bool
}

// StoryService handles story lifecycle business logic
type StoryService struct {
	stories   StoryStore
	views     ViewStore
	reactions ReactionStore
	friends   FriendStore
	profiles  ProfileStore
	uploader  Uploader
	notifier  StoryNotifier
	push      *PushService
	ttl       time.Duration
	now       func() time.Time
}

// NewStoryService creates a new story service. uploader, notifier and push
// may be nil; the corresponding features are then disabled.
func NewStoryService(
	stories StoryStore,
	views ViewStore,
	reactions ReactionStore,
	friends FriendStore,
	profiles ProfileStore,
	uploader Uploader,
	ttl time.Duration,
) *StoryService {
	return &StoryService{
		stories:   stories,
		views:     views,
		reactions: reactions,
		friends:   friends,
		profiles:  profiles,
		uploader:  uploader,
		ttl:       ttl,
		now:       time.Now,
	}
}

// SetNotifier attaches a change-event sink
func (s *StoryService) SetNotifier(n StoryNotifier) {
	s.notifier = n
}

// SetPush attaches the push notification sender
func (s *StoryService) SetPush(p *PushService) {
	s.push = p
}

// CreateRequest represents a request to post a story
type CreateRequest struct {
	ContentType string            `json:"content_type"`
	MediaType   models.MediaType  `json:"media_type"`
	Visibility  models.Visibility `json:"visibility"`
	Audience    []string          `json:"audience,omitempty"`
}

// CreateResponse carries the new story and its upload slot
type CreateResponse struct {
	Story  *models.Story `json:"story"`
	Upload *UploadTicket `json:"upload"`
}

// Create posts a new story: it reserves a pre-signed media upload slot and
// records the story row with the fixed expiry window. Friends are notified
// in the background.
func (s *StoryService) Create(ctx context.Context, userID string, req CreateRequest) (*CreateResponse, error) {
	if req.MediaType != models.MediaImage && req.MediaType != models.MediaVideo {
		return nil, fmt.Errorf("media_type must be image or video")
	}
	switch req.Visibility {
	case "":
		req.Visibility = models.VisibilityPublic
	case models.VisibilityPublic, models.VisibilityFriends:
	case models.VisibilitySelected, models.VisibilityExcluded:
		if len(req.Audience) == 0 {
			return nil, fmt.Errorf("audience is required for %s visibility", req.Visibility)
		}
	default:
		return nil, fmt.Errorf("unknown visibility %q", req.Visibility)
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("media uploads are not configured")
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	ticket, err := s.uploader.PresignUpload(ctx, userID, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve upload slot: %w", err)
	}

	now := s.now()
	story := &models.Story{
		ID:         uuid.New().String(),
		UserID:     userID,
		MediaURL:   ticket.MediaURL,
		MediaType:  req.MediaType,
		Visibility: req.Visibility,
		Audience:   req.Audience,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	if err := s.stories.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}

	if s.notifier != nil {
		s.notifier.StoryChanged(models.StoryEvent{Type: "story_created", StoryID: story.ID, UserID: userID})
	}
	go s.pushToFriends(story)

	return &CreateResponse{Story: story, Upload: ticket}, nil
}

// Feed builds the grouped story feed for a viewer: the viewer's own group
// first, then friends with unseen stories, then the rest. Stories and view
// receipts are fetched concurrently and joined before grouping.
func (s *StoryService) Feed(ctx context.Context, viewerID string) ([]*playback.Group, error) {
	friendIDs, err := s.friends.ListAcceptedIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	owners := append([]string{viewerID}, friendIDs...)

	now := s.now()

	var (
		wg         sync.WaitGroup
		stories    []*models.Story
		seenIDs    []string
		storiesErr error
		seenErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		stories, storiesErr = s.stories.ListActive(ctx, owners, now)
	}()
	go func() {
		defer wg.Done()
		seenIDs, seenErr = s.views.ListStoryIDsByViewer(ctx, viewerID)
	}()
	wg.Wait()

	if storiesErr != nil {
		return nil, fmt.Errorf("failed to list stories: %w", storiesErr)
	}
	if seenErr != nil {
		return nil, fmt.Errorf("failed to list view receipts: %w", seenErr)
	}

	visible := make([]*models.Story, 0, len(stories))
	for _, story := range stories {
		if visibleTo(story, viewerID) {
			visible = append(visible, story)
		}
	}
	// The query excludes expired rows, but a fetch can race with expiry.
	active := playback.FilterActive(visible, now)

	seen := make(map[string]bool, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = true
	}

	profiles, err := s.loadProfiles(ctx, active)
	if err != nil {
		log.Warn().Err(err).Str("viewer_id", viewerID).Msg("Failed to load story owner profiles")
		profiles = map[string]*models.User{}
	}

	return playback.GroupStories(active, viewerID, seen, profiles), nil
}

// MarkViewed records that the viewer opened a story. Repeat views are
// no-ops; callers may fire and forget.
func (s *StoryService) MarkViewed(ctx context.Context, storyID, viewerID string) error {
	if err := s.views.Insert(ctx, storyID, viewerID, s.now()); err != nil {
		return fmt.Errorf("failed to mark story viewed: %w", err)
	}
	return nil
}

// Delete removes a story and its dependent rows. Only the owner may delete.
func (s *StoryService) Delete(ctx context.Context, storyID, userID string) error {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return fmt.Errorf("story not found: %w", err)
	}
	if story.UserID != userID {
		return fmt.Errorf("only the owner can delete a story")
	}

	if err := s.stories.DeleteCascade(ctx, storyID); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}

	if s.notifier != nil {
		s.notifier.StoryChanged(models.StoryEvent{Type: "story_deleted", StoryID: storyID, UserID: userID})
	}
	return nil
}

// React toggles the viewer's reaction on a story: no existing reaction
// inserts one, the same kind removes it, a different kind replaces it in
// place. Returns the resulting reaction, or nil when it was removed.
func (s *StoryService) React(ctx context.Context, storyID, viewerID, kind string) (*models.StoryReaction, error) {
	if kind == "" {
		return nil, fmt.Errorf("reaction kind is required")
	}

	existing, err := s.reactions.GetByStoryAndUser(ctx, storyID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up reaction: %w", err)
	}

	switch {
	case existing == nil:
		reaction := &models.StoryReaction{
			ID:        uuid.New().String(),
			StoryID:   storyID,
			UserID:    viewerID,
			Kind:      kind,
			CreatedAt: s.now(),
		}
		if err := s.reactions.Insert(ctx, reaction); err != nil {
			return nil, fmt.Errorf("failed to insert reaction: %w", err)
		}
		return reaction, nil

	case existing.Kind == kind:
		if err := s.reactions.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to remove reaction: %w", err)
		}
		return nil, nil

	default:
		if err := s.reactions.UpdateKind(ctx, existing.ID, kind); err != nil {
			return nil, fmt.Errorf("failed to update reaction: %w", err)
		}
		existing.Kind = kind
		return existing, nil
	}
}

// Reactions lists the reactions on a story. Only the owner may see them.
func (s *StoryService) Reactions(ctx context.Context, storyID, userID string) ([]*models.StoryReaction, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("story not found: %w", err)
	}
	if story.UserID != userID {
		return nil, fmt.Errorf("only the owner can list reactions")
	}

	reactions, err := s.reactions.ListByStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return reactions, nil
}

// visibleTo applies the story's visibility policy. The caller has already
// restricted owners to the viewer and their accepted friends.
func visibleTo(story *models.Story, viewerID string) bool {
	if story.UserID == viewerID {
		return true
	}
	switch story.Visibility {
	case models.VisibilityPublic, models.VisibilityFriends:
		return true
	case models.VisibilitySelected:
		return slices.Contains(story.Audience, viewerID)
	case models.VisibilityExcluded:
		return !slices.Contains(story.Audience, viewerID)
	}
	return false
}

func (s *StoryService) loadProfiles(ctx context.Context, stories []*models.Story) (map[string]*models.User, error) {
	var ownerIDs []string
	for _, story := range stories {
		if !slices.Contains(ownerIDs, story.UserID) {
			ownerIDs = append(ownerIDs, story.UserID)
		}
	}

	users, err := s.profiles.ListByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*models.User, len(users))
	for _, u := range users {
		profiles[u.ID] = u
	}
	return profiles, nil
}

// pushToFriends notifies the owner's accepted friends about a new story.
// Best effort: failures are logged and never surface to the poster.
func (s *StoryService) pushToFriends(story *models.Story) {
	if s.push == nil || !s.push.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	friendIDs, err := s.friends.ListAcceptedIDs(ctx, story.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", story.UserID).Msg("Failed to list friends for push")
		return
	}

	users, err := s.profiles.ListByIDs(ctx, friendIDs)
	if err != nil {
		log.Error().Err(err).Str("user_id", story.UserID).Msg("Failed to load friends for push")
		return
	}

	owner, err := s.profiles.ListByIDs(ctx, []string{story.UserID})
	if err != nil || len(owner) == 0 {
		log.Error().Err(err).Str("user_id", story.UserID).Msg("Failed to load story owner for push")
		return
	}

	// Connected friends see the realtime story event; only push to the rest.
	var tokens []string
	for _, u := range users {
		if s.notifier != nil && s.notifier.IsOnline(u.ID) {
			continue
		}
		if u.PushToken != nil && *u.PushToken != "" {
			tokens = append(tokens, *u.PushToken)
		}
	}
	s.push.NotifyStoryPosted(owner[0].Username, tokens)
}
