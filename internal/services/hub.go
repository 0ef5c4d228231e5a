package services

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a message sent to a websocket session
type WSMessage struct {
	Type      string `json:"type"`
	ContactID string `json:"contactId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// WSHub tracks open websocket sessions per user and fans contact change
// events out to them. A user may have several sessions (browser tabs) open
// at once.
type WSHub struct {
	mu       sync.RWMutex
	sessions map[string]map[*websocket.Conn]struct{}
}

// NewWSHub creates a new websocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		sessions: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// Register adds a websocket session for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[*websocket.Conn]struct{})
	}
	h.sessions[userID][conn] = struct{}{}

	log.Info().Str("user_id", userID).Msg("WebSocket session registered")
}

// Unregister removes a websocket session for a user
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, exists := h.sessions[userID]; exists {
		if _, ok := conns[conn]; ok {
			conn.Close()
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.sessions, userID)
			}
			log.Info().Str("user_id", userID).Msg("WebSocket session unregistered")
		}
	}
}

// NotifyContactEvent broadcasts a contact change event to every open session
// of the given user. Users without sessions are skipped silently.
func (h *WSHub) NotifyContactEvent(userID, event, contactID string) {
	h.broadcast(userID, WSMessage{Type: event, ContactID: contactID})
}

func (h *WSHub) broadcast(userID string, message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal websocket message")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.sessions[userID]))
	for conn := range h.sessions[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to send websocket message")
			h.Unregister(userID, conn)
		}
	}
}
