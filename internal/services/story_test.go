package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"story-feed-backend/internal/models"
)

// fakeStore is an in-memory implementation of the store interfaces
type fakeStore struct {
	mu         sync.Mutex
	stories    []*models.Story
	views      map[string][]string // viewer id -> story ids
	reactions  map[string]*models.StoryReaction
	friends    map[string][]string
	users      map[string]*models.User
	failDelete map[string]bool
	deleted    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		views:      make(map[string][]string),
		reactions:  make(map[string]*models.StoryReaction),
		friends:    make(map[string][]string),
		users:      make(map[string]*models.User),
		failDelete: make(map[string]bool),
	}
}

func (f *fakeStore) Create(_ context.Context, story *models.Story) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stories = append(f.stories, story)
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.stories {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("story not found")
}

func (f *fakeStore) ListActive(_ context.Context, ownerIDs []string, now time.Time) ([]*models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owners := make(map[string]bool)
	for _, id := range ownerIDs {
		owners[id] = true
	}
	var out []*models.Story
	for _, s := range f.stories {
		if owners[s.UserID] && s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) ListExpired(_ context.Context, now time.Time) ([]*models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Story
	for _, s := range f.stories {
		if !s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteCascade(_ context.Context, storyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete[storyID] {
		return fmt.Errorf("delete rejected")
	}
	kept := f.stories[:0]
	for _, s := range f.stories {
		if s.ID != storyID {
			kept = append(kept, s)
		}
	}
	f.stories = kept
	for viewer, ids := range f.views {
		cleaned := ids[:0]
		for _, id := range ids {
			if id != storyID {
				cleaned = append(cleaned, id)
			}
		}
		f.views[viewer] = cleaned
	}
	for key, r := range f.reactions {
		if r.StoryID == storyID {
			delete(f.reactions, key)
		}
	}
	f.deleted = append(f.deleted, storyID)
	return nil
}

func (f *fakeStore) Insert(_ context.Context, storyID, viewerID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.views[viewerID] {
		if id == storyID {
			return nil
		}
	}
	f.views[viewerID] = append(f.views[viewerID], storyID)
	return nil
}

func (f *fakeStore) ListStoryIDsByViewer(_ context.Context, viewerID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.views[viewerID]...), nil
}

func reactionKey(storyID, userID string) string { return storyID + "|" + userID }

func (f *fakeStore) GetByStoryAndUser(_ context.Context, storyID, userID string) (*models.StoryReaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reactions[reactionKey(storyID, userID)], nil
}

func (f *fakeStore) InsertReaction(r *models.StoryReaction) {
	f.reactions[reactionKey(r.StoryID, r.UserID)] = r
}

func (f *fakeStore) Insert2(_ context.Context, r *models.StoryReaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InsertReaction(r)
	return nil
}

func (f *fakeStore) UpdateKind(_ context.Context, id, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reactions {
		if r.ID == id {
			r.Kind = kind
			return nil
		}
	}
	return fmt.Errorf("reaction not found")
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, r := range f.reactions {
		if r.ID == id {
			delete(f.reactions, key)
		}
	}
	return nil
}

func (f *fakeStore) ListByStory(_ context.Context, storyID string) ([]*models.StoryReaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.StoryReaction
	for _, r := range f.reactions {
		if r.StoryID == storyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAcceptedIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.friends[userID]...), nil
}

func (f *fakeStore) ListByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// reactionStoreAdapter renames the fake's reaction insert to the
// interface's Insert without clashing with the view receipt insert.
type reactionStoreAdapter struct{ *fakeStore }

func (a reactionStoreAdapter) Insert(ctx context.Context, r *models.StoryReaction) error {
	return a.fakeStore.Insert2(ctx, r)
}

func newTestStoryService(f *fakeStore) *StoryService {
	return NewStoryService(f, f, reactionStoreAdapter{f}, f, f, nil, 24*time.Hour)
}

func (f *fakeStore) storyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stories)
}

func addStory(f *fakeStore, id, userID string, createdAt time.Time) *models.Story {
	s := &models.Story{
		ID:         id,
		UserID:     userID,
		MediaURL:   "https://cdn/" + id,
		MediaType:  models.MediaImage,
		Visibility: models.VisibilityFriends,
		CreatedAt:  createdAt,
		ExpiresAt:  createdAt.Add(24 * time.Hour),
	}
	f.mu.Lock()
	f.stories = append(f.stories, s)
	f.mu.Unlock()
	return s
}

func TestReactionToggle(t *testing.T) {
	f := newFakeStore()
	svc := newTestStoryService(f)
	ctx := context.Background()

	// First reaction inserts.
	r, err := svc.React(ctx, "s1", "alice", "heart")
	if err != nil {
		t.Fatalf("react failed: %v", err)
	}
	if r == nil || r.Kind != "heart" {
		t.Fatalf("expected heart reaction, got %+v", r)
	}

	// Same kind toggles off.
	r, err = svc.React(ctx, "s1", "alice", "heart")
	if err != nil {
		t.Fatalf("react failed: %v", err)
	}
	if r != nil {
		t.Errorf("expected reaction removed, got %+v", r)
	}
	if len(f.reactions) != 0 {
		t.Errorf("expected zero reactions after toggle, got %d", len(f.reactions))
	}
}

func TestReactionReplace(t *testing.T) {
	f := newFakeStore()
	svc := newTestStoryService(f)
	ctx := context.Background()

	if _, err := svc.React(ctx, "s1", "alice", "heart"); err != nil {
		t.Fatalf("react failed: %v", err)
	}
	r, err := svc.React(ctx, "s1", "alice", "fire")
	if err != nil {
		t.Fatalf("react failed: %v", err)
	}

	if r == nil || r.Kind != "fire" {
		t.Fatalf("expected fire reaction, got %+v", r)
	}
	if len(f.reactions) != 1 {
		t.Errorf("expected exactly one reaction, got %d", len(f.reactions))
	}
}

func TestReactionEmptyKind(t *testing.T) {
	f := newFakeStore()
	svc := newTestStoryService(f)

	if _, err := svc.React(context.Background(), "s1", "alice", ""); err == nil {
		t.Error("expected error for empty reaction kind")
	}
}

func TestFeedGroupingAndOrdering(t *testing.T) {
	f := newFakeStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	f.friends["alice"] = []string{"bob", "carol"}
	f.users["alice"] = &models.User{ID: "alice", Username: "alice"}
	f.users["bob"] = &models.User{ID: "bob", Username: "bob"}
	f.users["carol"] = &models.User{ID: "carol", Username: "carol"}

	addStory(f, "c1", "carol", now.Add(-3*time.Hour))
	addStory(f, "a1", "alice", now.Add(-2*time.Hour))
	addStory(f, "b1", "bob", now.Add(-1*time.Hour))

	// alice has seen carol's story but not bob's.
	f.views["alice"] = []string{"c1"}

	svc := newTestStoryService(f)
	svc.now = func() time.Time { return now }

	groups, err := svc.Feed(context.Background(), "alice")
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}

	want := []string{"alice", "bob", "carol"}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, g := range groups {
		if g.UserID != want[i] {
			t.Errorf("group %d = %s, want %s", i, g.UserID, want[i])
		}
	}
	if groups[1].Username != "bob" {
		t.Errorf("profile not joined: %+v", groups[1])
	}
}

func TestFeedExcludesExpiredAndInvisible(t *testing.T) {
	f := newFakeStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	f.friends["alice"] = []string{"bob"}
	f.users["bob"] = &models.User{ID: "bob", Username: "bob"}

	addStory(f, "b1", "bob", now.Add(-1*time.Hour))
	addStory(f, "b2", "bob", now.Add(-2*time.Hour))
	expired := addStory(f, "b3", "bob", now.Add(-30*time.Hour))
	hidden := addStory(f, "b4", "bob", now.Add(-1*time.Hour))
	hidden.Visibility = models.VisibilityExcluded
	hidden.Audience = []string{"alice"}
	picked := addStory(f, "b5", "bob", now.Add(-1*time.Hour))
	picked.Visibility = models.VisibilitySelected
	picked.Audience = []string{"dave"}

	svc := newTestStoryService(f)
	svc.now = func() time.Time { return now }

	groups, err := svc.Feed(context.Background(), "alice")
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	ids := make(map[string]bool)
	for _, s := range groups[0].Stories {
		ids[s.ID] = true
	}
	if !ids["b1"] || !ids["b2"] {
		t.Errorf("active visible stories missing: %v", ids)
	}
	if ids[expired.ID] {
		t.Error("expired story leaked into the feed")
	}
	if ids[hidden.ID] {
		t.Error("excluded-visibility story leaked into the feed")
	}
	if ids[picked.ID] {
		t.Error("selected-visibility story leaked to a non-selected viewer")
	}
}

// End-to-end scenario: one friend with 2 active and 1 expired story.
func TestFeedEndToEnd(t *testing.T) {
	f := newFakeStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	f.friends["viewer"] = []string{"friend"}
	f.users["friend"] = &models.User{ID: "friend", Username: "friend"}

	addStory(f, "f1", "friend", now.Add(-2*time.Hour))
	addStory(f, "f2", "friend", now.Add(-1*time.Hour))
	addStory(f, "f3", "friend", now.Add(-30*time.Hour)) // expired

	svc := newTestStoryService(f)
	svc.now = func() time.Time { return now }

	groups, err := svc.Feed(context.Background(), "viewer")
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("expected exactly one group, got %d", len(groups))
	}
	if groups[0].UserID != "friend" || len(groups[0].Stories) != 2 {
		t.Fatalf("group = %s with %d stories, want friend with 2", groups[0].UserID, len(groups[0].Stories))
	}
	for _, s := range groups[0].Stories {
		if s.ID == "f3" {
			t.Error("expired story included in the group")
		}
	}
}

func TestReactionsOwnerOnly(t *testing.T) {
	f := newFakeStore()
	now := time.Now()
	addStory(f, "s1", "bob", now)

	svc := newTestStoryService(f)
	ctx := context.Background()

	if _, err := svc.React(ctx, "s1", "alice", "heart"); err != nil {
		t.Fatalf("react failed: %v", err)
	}

	if _, err := svc.Reactions(ctx, "s1", "alice"); err == nil {
		t.Error("expected error listing reactions as a non-owner")
	}

	reactions, err := svc.Reactions(ctx, "s1", "bob")
	if err != nil {
		t.Fatalf("owner list failed: %v", err)
	}
	if len(reactions) != 1 || reactions[0].Kind != "heart" {
		t.Errorf("expected one heart reaction, got %+v", reactions)
	}
}

func TestMarkViewedIdempotent(t *testing.T) {
	f := newFakeStore()
	svc := newTestStoryService(f)
	ctx := context.Background()

	if err := svc.MarkViewed(ctx, "s1", "alice"); err != nil {
		t.Fatalf("mark viewed failed: %v", err)
	}
	if err := svc.MarkViewed(ctx, "s1", "alice"); err != nil {
		t.Fatalf("repeat mark viewed failed: %v", err)
	}

	if len(f.views["alice"]) != 1 {
		t.Errorf("expected one receipt, got %d", len(f.views["alice"]))
	}
}

func TestDeleteRequiresOwner(t *testing.T) {
	f := newFakeStore()
	now := time.Now()
	addStory(f, "s1", "bob", now)

	svc := newTestStoryService(f)

	if err := svc.Delete(context.Background(), "s1", "alice"); err == nil {
		t.Error("expected error deleting someone else's story")
	}
	if err := svc.Delete(context.Background(), "s1", "bob"); err != nil {
		t.Errorf("owner delete failed: %v", err)
	}
	if len(f.stories) != 0 {
		t.Error("story not deleted")
	}
}
