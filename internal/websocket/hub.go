package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	SessionID() string
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections organized by dashboard session
// It is safe for concurrent use
type Hub struct {
	// sessions maps session ID to a map of client ID to client
	sessions map[string]map[string]ClientInterface
	mu       sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its session
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionID := client.SessionID()
	clientID := client.ID()

	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]ClientInterface)
	}

	h.sessions[sessionID][clientID] = client

	log.Debug().
		Str("session_id", sessionID).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	removed := h.remove(client.SessionID(), client.ID())
	h.mu.Unlock()

	if removed {
		log.Debug().
			Str("session_id", client.SessionID()).
			Str("client_id", client.ID()).
			Msg("WebSocket client unregistered")
	}
}

// remove deletes one client and drops the session entry once it is empty.
// Callers hold h.mu.
func (h *Hub) remove(sessionID, clientID string) bool {
	clients, ok := h.sessions[sessionID]
	if !ok {
		return false
	}
	if _, exists := clients[clientID]; !exists {
		return false
	}
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(h.sessions, sessionID)
	}
	return true
}

// Broadcast sends an event to all clients attached to a session
func (h *Hub) Broadcast(sessionID string, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients, ok := h.sessions[sessionID]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	targets := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	// Send never blocks, so sending inline keeps each session's events in order
	var dropped []ClientInterface
	for _, client := range targets {
		if err := client.Send(data); err != nil {
			log.Warn().
				Err(err).
				Str("session_id", sessionID).
				Str("client_id", client.ID()).
				Msg("Dropping client after failed send")
			dropped = append(dropped, client)
		}
	}
	if len(dropped) > 0 {
		h.mu.Lock()
		for _, client := range dropped {
			h.remove(sessionID, client.ID())
		}
		h.mu.Unlock()
	}

	log.Debug().
		Str("session_id", sessionID).
		Str("event_type", event.Type).
		Int("client_count", len(targets)-len(dropped)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients attached to a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.sessions[sessionID]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the total number of connected clients across all sessions
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.sessions {
		total += len(clients)
	}
	return total
}

// CloseSession disconnects every client attached to a session.
// Used when the session logs out or its credential expires.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	clients := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	for _, client := range clients {
		if err := client.Close(); err != nil {
			log.Debug().
				Err(err).
				Str("session_id", sessionID).
				Str("client_id", client.ID()).
				Msg("Error closing client")
		}
	}
}
