package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"story-feed-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message, inbound or outbound
type WSMessage struct {
	Type       string      `json:"type"`
	StoryID    string      `json:"story_id,omitempty"`
	UserID     string      `json:"user_id,omitempty"`
	GroupIndex *int        `json:"group_index,omitempty"`
	StoryIndex *int        `json:"story_index,omitempty"`
	Progress   *float64    `json:"progress,omitempty"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// wsClient wraps a connection with a write lock so the hub broadcast and
// the viewer session loop can share it.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections and fans story table change events
// out to every subscriber. It also kicks the cleanup sweeper on each
// change notification.
type WSHub struct {
	mu       sync.RWMutex
	clients  map[string]*wsClient
	onChange func()
}

// NewWSHub creates a new WebSocket hub. onChange runs on every story
// change event and may be nil.
func NewWSHub(onChange func()) *WSHub {
	return &WSHub{
		clients:  make(map[string]*wsClient),
		onChange: onChange,
	}
}

// Register registers a new WebSocket connection for a user. An existing
// connection for the same user is closed and replaced.
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.clients[userID]; exists {
		existing.conn.Close()
	}
	h.clients[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's WebSocket connection
func (h *WSHub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[userID]; exists {
		client.conn.Close()
		delete(h.clients, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.clients[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.send(data); err != nil {
		h.Unregister(userID)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is connected
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// StoryChanged broadcasts a story table change to every connected client
// and triggers an early cleanup sweep. Implements StoryNotifier.
func (h *WSHub) StoryChanged(event models.StoryEvent) {
	if h.onChange != nil {
		h.onChange()
	}

	message := WSMessage{
		Type:    event.Type,
		StoryID: event.StoryID,
		UserID:  event.UserID,
	}
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal story event")
		return
	}

	h.mu.RLock()
	clients := make(map[string]*wsClient, len(h.clients))
	for id, c := range h.clients {
		clients[id] = c
	}
	h.mu.RUnlock()

	for userID, client := range clients {
		if err := client.send(data); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to broadcast story event")
		}
	}
}
