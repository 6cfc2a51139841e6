package handlers

import (
	"encoding/json"
	"net/http"

	"story-feed-backend/internal/middleware"
	"story-feed-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	storyService *services.StoryService
}

// NewStoryHandler creates a new story handler
func NewStoryHandler(storyService *services.StoryService) *StoryHandler {
	return &StoryHandler{
		storyService: storyService,
	}
}

// CreateStory handles POST /api/v1/stories. It returns the story row and a
// pre-signed URL the client uploads the media file to.
func (h *StoryHandler) CreateStory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.storyService.Create(ctx, userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create story")
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("story_id", response.Story.ID).
		Msg("Story created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// GetFeed handles GET /api/v1/stories/feed
func (h *StoryHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	groups, err := h.storyService.Feed(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to build story feed")
		respondError(w, "Failed to load stories", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"groups": groups})
}

// DeleteStory handles DELETE /api/v1/stories/{story_id}
func (h *StoryHandler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	storyID := chi.URLParam(r, "story_id")

	if err := h.storyService.Delete(ctx, storyID, userID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("story_id", storyID).
			Msg("Failed to delete story")
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkViewed handles POST /api/v1/stories/{story_id}/view
func (h *StoryHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	storyID := chi.URLParam(r, "story_id")

	if err := h.storyService.MarkViewed(ctx, storyID, userID); err != nil {
		// Receipts are best effort; report success anyway so the client
		// never blocks navigation on a failed receipt.
		log.Warn().
			Err(err).
			Str("user_id", userID).
			Str("story_id", storyID).
			Msg("Failed to mark story viewed")
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListReactions handles GET /api/v1/stories/{story_id}/reactions
func (h *StoryHandler) ListReactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	storyID := chi.URLParam(r, "story_id")

	reactions, err := h.storyService.Reactions(ctx, storyID, userID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("story_id", storyID).
			Msg("Failed to list reactions")
		respondError(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"reactions": reactions})
}

// ReactRequest represents a reaction toggle body
type ReactRequest struct {
	Kind string `json:"kind"`
}

// React handles POST /api/v1/stories/{story_id}/react
func (h *StoryHandler) React(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	storyID := chi.URLParam(r, "story_id")

	var req ReactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reaction, err := h.storyService.React(ctx, storyID, userID, req.Kind)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("story_id", storyID).
			Msg("Failed to toggle reaction")
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	response := map[string]interface{}{"reaction": reaction}
	if reaction == nil {
		response["removed"] = true
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
