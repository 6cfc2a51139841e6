package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"story-feed-backend/internal/middleware"
	"story-feed-backend/internal/models"
	"story-feed-backend/internal/repository"
	"story-feed-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FriendHandler handles friendship HTTP requests
type FriendHandler struct {
	friendRepo  *repository.FriendRepository
	userService *services.UserService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendRepo *repository.FriendRepository, userService *services.UserService) *FriendHandler {
	return &FriendHandler{
		friendRepo:  friendRepo,
		userService: userService,
	}
}

// FriendRequest represents a friend request body
type FriendRequest struct {
	Username string `json:"username"`
}

// RequestFriend handles POST /api/v1/friends
func (h *FriendHandler) RequestFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req FriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		respondError(w, "username is required", http.StatusBadRequest)
		return
	}

	friend, err := h.userService.GetByUsername(ctx, req.Username)
	if err != nil {
		respondError(w, "User not found", http.StatusNotFound)
		return
	}
	if friend.ID == userID {
		respondError(w, "Cannot befriend yourself", http.StatusBadRequest)
		return
	}

	exists, err := h.friendRepo.Exists(ctx, userID, friend.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to check friendship")
		respondError(w, "Failed to create friend request", http.StatusInternalServerError)
		return
	}
	if exists {
		respondError(w, "Friend request already exists", http.StatusConflict)
		return
	}

	friendship := &models.Friendship{
		ID:        uuid.New().String(),
		UserID:    userID,
		FriendID:  friend.ID,
		Status:    models.FriendPending,
		CreatedAt: time.Now(),
	}
	if err := h.friendRepo.Create(ctx, friendship); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create friend request")
		respondError(w, "Failed to create friend request", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friend_id", friend.ID).
		Msg("Friend request created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(friendship)
}

// AcceptFriend handles POST /api/v1/friends/{user_id}/accept
func (h *FriendHandler) AcceptFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	requesterID := chi.URLParam(r, "user_id")

	if err := h.friendRepo.Accept(ctx, userID, requesterID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("requester_id", requesterID).
			Msg("Failed to accept friend request")
		respondError(w, "Friend request not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveFriend handles DELETE /api/v1/friends/{user_id}
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	friendID := chi.URLParam(r, "user_id")

	if err := h.friendRepo.Delete(ctx, userID, friendID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("friend_id", friendID).
			Msg("Failed to remove friend")
		respondError(w, "Failed to remove friend", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFriends handles GET /api/v1/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	ids, err := h.friendRepo.ListAcceptedIDs(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list friends")
		respondError(w, "Failed to list friends", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{"friend_ids": ids})
}
