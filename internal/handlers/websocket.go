package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"story-feed-backend/internal/models"
	"story-feed-backend/internal/playback"
	"story-feed-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// WebSocketHandler serves the realtime surface: story change events from
// the hub plus the interactive viewer session. Each connection runs a
// single event loop, so navigation and timer transitions never apply
// concurrently.
type WebSocketHandler struct {
	hub          *services.WSHub
	userService  *services.UserService
	storyService *services.StoryService
	duration     time.Duration
	settle       time.Duration
	tick         time.Duration
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	storyService *services.StoryService,
	duration, settle, tick time.Duration,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		userService:  userService,
		storyService: storyService,
		duration:     duration,
		settle:       settle,
		tick:         tick,
	}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	inbound := make(chan services.WSMessage)
	go h.readPump(conn, userID, inbound)

	h.runViewerLoop(r.Context(), userID, inbound)
}

// readPump reads client messages into the event loop channel and closes
// it when the connection drops.
func (h *WebSocketHandler) readPump(conn *websocket.Conn, userID string, inbound chan<- services.WSMessage) {
	defer close(inbound)

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendErrorToUser(userID, "Invalid message format")
			continue
		}
		inbound <- msg
	}
}

// runViewerLoop is the per-connection event loop: one channel of client
// commands, one playback ticker. The session only ever mutates here.
func (h *WebSocketHandler) runViewerLoop(ctx context.Context, userID string, inbound <-chan services.WSMessage) {
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	var session *playback.Session

	for {
		select {
		case msg, ok := <-inbound:
			if !ok {
				// Connection gone: tear the session down so no timer
				// fires after disconnect.
				if session != nil && !session.Closed() {
					session.Close()
				}
				return
			}
			session = h.handleViewerMessage(ctx, userID, msg, session)

		case now := <-ticker.C:
			if session != nil {
				session.Tick(now)
				if session.Closed() {
					session = nil
				}
			}
		}
	}
}

func (h *WebSocketHandler) handleViewerMessage(ctx context.Context, userID string, msg services.WSMessage, session *playback.Session) *playback.Session {
	now := time.Now()

	if msg.Type == "open" {
		if session != nil && !session.Closed() {
			session.Close()
		}
		return h.openSession(ctx, userID, msg.StoryID)
	}

	if session == nil {
		if msg.Type != "close" {
			h.sendErrorToUser(userID, "No viewer session open")
		}
		return nil
	}

	switch msg.Type {
	case "pause":
		session.Pause(now)
	case "resume":
		session.Resume(now)
	case "next_story":
		session.NextStory(now)
	case "prev_story":
		session.PrevStory(now)
	case "next_user":
		session.NextUser(now)
	case "prev_user":
		session.PrevUser(now)
	case "jump_to_user":
		if msg.GroupIndex == nil {
			h.sendErrorToUser(userID, "group_index is required")
			break
		}
		session.JumpToUser(*msg.GroupIndex, now)
	case "close":
		session.Close()
	default:
		h.sendErrorToUser(userID, "Unknown message type")
	}

	if session.Closed() {
		return nil
	}
	return session
}

// openSession builds a fresh grouped feed and starts playback on the
// requested story. An unknown or already-expired story id leaves the
// viewer closed without an error dialog.
func (h *WebSocketHandler) openSession(ctx context.Context, userID, storyID string) *playback.Session {
	if storyID == "" {
		h.sendErrorToUser(userID, "story_id is required")
		return nil
	}

	groups, err := h.storyService.Feed(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load feed for viewer")
		h.sendErrorToUser(userID, "Failed to load stories")
		return nil
	}

	hooks := playback.SessionHooks{
		OnEnter: func(g *playback.Group, s *models.Story, groupIndex, storyIndex int) {
			gi, si := groupIndex, storyIndex
			h.hub.SendToUser(userID, services.WSMessage{
				Type:       "story_entered",
				StoryID:    s.ID,
				UserID:     g.UserID,
				GroupIndex: &gi,
				StoryIndex: &si,
			})
			go h.markViewed(s.ID, userID)
		},
		OnProgress: func(percent float64) {
			p := percent
			h.hub.SendToUser(userID, services.WSMessage{Type: "progress", Progress: &p})
		},
		OnClose: func() {
			h.hub.SendToUser(userID, services.WSMessage{Type: "viewer_closed"})
		},
	}

	session := playback.NewSession(groups, h.duration, h.settle, hooks)
	if !session.Open(storyID, time.Now()) {
		// The story may have expired between link creation and click.
		h.hub.SendToUser(userID, services.WSMessage{Type: "viewer_closed", StoryID: storyID})
		return nil
	}
	return session
}

// markViewed records a view receipt in the background. Failures never
// block navigation.
func (h *WebSocketHandler) markViewed(storyID, viewerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.storyService.MarkViewed(ctx, storyID, viewerID); err != nil {
		log.Warn().
			Err(err).
			Str("story_id", storyID).
			Str("viewer_id", viewerID).
			Msg("Failed to mark story viewed")
	}
}

// sendErrorToUser sends an error message to a user
func (h *WebSocketHandler) sendErrorToUser(userID, message string) {
	msg := services.WSMessage{
		Type:    "error",
		Message: message,
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to send error message")
	}
}
