package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"story-feed-backend/internal/middleware"
	"story-feed-backend/internal/models"
	"story-feed-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// memStore is a minimal in-memory backend for handler tests
type memStore struct {
	stories   []*models.Story
	views     map[string][]string
	reactions map[string]*models.StoryReaction
	friends   map[string][]string
	users     map[string]*models.User
}

func newMemStore() *memStore {
	return &memStore{
		views:     make(map[string][]string),
		reactions: make(map[string]*models.StoryReaction),
		friends:   make(map[string][]string),
		users:     make(map[string]*models.User),
	}
}

func (m *memStore) Create(_ context.Context, s *models.Story) error {
	m.stories = append(m.stories, s)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*models.Story, error) {
	for _, s := range m.stories {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("story not found")
}

func (m *memStore) ListActive(_ context.Context, ownerIDs []string, now time.Time) ([]*models.Story, error) {
	owners := make(map[string]bool)
	for _, id := range ownerIDs {
		owners[id] = true
	}
	var out []*models.Story
	for _, s := range m.stories {
		if owners[s.UserID] && s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListExpired(_ context.Context, now time.Time) ([]*models.Story, error) {
	var out []*models.Story
	for _, s := range m.stories {
		if !s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) DeleteCascade(_ context.Context, storyID string) error {
	kept := m.stories[:0]
	for _, s := range m.stories {
		if s.ID != storyID {
			kept = append(kept, s)
		}
	}
	m.stories = kept
	return nil
}

type memViews struct{ m *memStore }

func (v memViews) Insert(_ context.Context, storyID, viewerID string, _ time.Time) error {
	for _, id := range v.m.views[viewerID] {
		if id == storyID {
			return nil
		}
	}
	v.m.views[viewerID] = append(v.m.views[viewerID], storyID)
	return nil
}

func (v memViews) ListStoryIDsByViewer(_ context.Context, viewerID string) ([]string, error) {
	return v.m.views[viewerID], nil
}

type memReactions struct{ m *memStore }

func (r memReactions) GetByStoryAndUser(_ context.Context, storyID, userID string) (*models.StoryReaction, error) {
	return r.m.reactions[storyID+"|"+userID], nil
}

func (r memReactions) Insert(_ context.Context, reaction *models.StoryReaction) error {
	r.m.reactions[reaction.StoryID+"|"+reaction.UserID] = reaction
	return nil
}

func (r memReactions) UpdateKind(_ context.Context, id, kind string) error {
	for _, reaction := range r.m.reactions {
		if reaction.ID == id {
			reaction.Kind = kind
		}
	}
	return nil
}

func (r memReactions) Delete(_ context.Context, id string) error {
	for key, reaction := range r.m.reactions {
		if reaction.ID == id {
			delete(r.m.reactions, key)
		}
	}
	return nil
}

func (r memReactions) ListByStory(_ context.Context, storyID string) ([]*models.StoryReaction, error) {
	var out []*models.StoryReaction
	for _, reaction := range r.m.reactions {
		if reaction.StoryID == storyID {
			out = append(out, reaction)
		}
	}
	return out, nil
}

func (m *memStore) ListAcceptedIDs(_ context.Context, userID string) ([]string, error) {
	return m.friends[userID], nil
}

func (m *memStore) ListByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// testUserMiddleware injects a fixed user without JWT plumbing
func testUserMiddleware(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), userID)))
		})
	}
}

func setupStoryRouter(m *memStore, viewerID string) http.Handler {
	svc := services.NewStoryService(m, memViews{m}, memReactions{m}, m, m, nil, 24*time.Hour)
	h := NewStoryHandler(svc)

	r := chi.NewRouter()
	r.Use(testUserMiddleware(viewerID))
	r.Get("/stories/feed", h.GetFeed)
	r.Delete("/stories/{story_id}", h.DeleteStory)
	r.Post("/stories/{story_id}/view", h.MarkViewed)
	r.Post("/stories/{story_id}/react", h.React)
	return r
}

func addMemStory(m *memStore, id, userID string, createdAt time.Time) {
	m.stories = append(m.stories, &models.Story{
		ID:         id,
		UserID:     userID,
		MediaURL:   "https://cdn/" + id,
		MediaType:  models.MediaImage,
		Visibility: models.VisibilityFriends,
		CreatedAt:  createdAt,
		ExpiresAt:  createdAt.Add(24 * time.Hour),
	})
}

func TestGetFeedAPI(t *testing.T) {
	m := newMemStore()
	now := time.Now()
	m.friends["alice"] = []string{"bob"}
	m.users["bob"] = &models.User{ID: "bob", Username: "bob"}
	addMemStory(m, "b1", "bob", now.Add(-time.Hour))
	addMemStory(m, "b2", "bob", now.Add(-2*time.Hour))
	addMemStory(m, "old", "bob", now.Add(-30*time.Hour))

	router := setupStoryRouter(m, "alice")

	req := httptest.NewRequest(http.MethodGet, "/stories/feed", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Groups []struct {
			UserID  string          `json:"user_id"`
			Stories []*models.Story `json:"stories"`
		} `json:"groups"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(body.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(body.Groups))
	}
	if body.Groups[0].UserID != "bob" || len(body.Groups[0].Stories) != 2 {
		t.Errorf("group = %s with %d stories, want bob with 2", body.Groups[0].UserID, len(body.Groups[0].Stories))
	}
}

func TestReactAPIToggle(t *testing.T) {
	m := newMemStore()
	addMemStory(m, "s1", "bob", time.Now())
	router := setupStoryRouter(m, "alice")

	react := func() *httptest.ResponseRecorder {
		body := bytes.NewBufferString(`{"kind":"heart"}`)
		req := httptest.NewRequest(http.MethodPost, "/stories/s1/react", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := react(); rec.Code != http.StatusOK {
		t.Fatalf("first react status = %d", rec.Code)
	}
	if len(m.reactions) != 1 {
		t.Fatalf("expected 1 reaction, got %d", len(m.reactions))
	}

	// Same kind again toggles off.
	if rec := react(); rec.Code != http.StatusOK {
		t.Fatalf("second react status = %d", rec.Code)
	}
	if len(m.reactions) != 0 {
		t.Errorf("expected 0 reactions after toggle, got %d", len(m.reactions))
	}
}

func TestReactAPIMissingKind(t *testing.T) {
	m := newMemStore()
	router := setupStoryRouter(m, "alice")

	req := httptest.NewRequest(http.MethodPost, "/stories/s1/react", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestMarkViewedAPI(t *testing.T) {
	m := newMemStore()
	addMemStory(m, "s1", "bob", time.Now())
	router := setupStoryRouter(m, "alice")

	req := httptest.NewRequest(http.MethodPost, "/stories/s1/view", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(m.views["alice"]) != 1 {
		t.Errorf("expected 1 receipt, got %d", len(m.views["alice"]))
	}
}

func TestDeleteStoryAPI(t *testing.T) {
	m := newMemStore()
	addMemStory(m, "s1", "alice", time.Now())
	router := setupStoryRouter(m, "alice")

	req := httptest.NewRequest(http.MethodDelete, "/stories/s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(m.stories) != 0 {
		t.Error("story not deleted")
	}

	// Deleting someone else's story is rejected.
	addMemStory(m, "s2", "bob", time.Now())
	req = httptest.NewRequest(http.MethodDelete, "/stories/s2", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
