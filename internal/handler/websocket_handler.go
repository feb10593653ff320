package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/session"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/websocket"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler streams a session's dashboard events
type WebSocketHandler struct {
	hub            *websocket.Hub
	sessions       middleware.SessionLookup
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, sessions middleware.SessionLookup, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		sessions:       sessions,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients such as the TUI send no Origin
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// authorize resolves the session a socket wants to follow. Rejections are
// answered before the upgrade so browsers see a normal 401.
func (h *WebSocketHandler) authorize(c echo.Context) (*session.Session, string) {
	raw := middleware.SessionIDFromRequest(c)
	if raw == "" {
		return nil, "Missing session"
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, "Invalid session id"
	}
	sess, err := h.sessions.Get(id)
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		return nil, "Session expired, please log in again"
	case err != nil:
		return nil, "Invalid session"
	}
	return sess, ""
}

// HandleWS upgrades to a WebSocket that receives the session's dashboard
// events. Browsers cannot set headers on the handshake, so they pass ?session=.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	sess, reason := h.authorize(c)
	if sess == nil {
		log.Debug().Str("reason", reason).Msg("WebSocket connection rejected")
		return NewUnauthorizedError(c, reason)
	}
	sessionID := sess.ID.String()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the error response
		log.Warn().Err(err).Str("session_id", sessionID).Msg("WebSocket upgrade failed")
		return nil
	}

	client := websocket.NewClient(conn, sessionID, h.hub)

	// A tab that connects after the first load starts from the cached snapshot
	if snap := sess.ViewModel.Snapshot(); snap != nil {
		if data, err := websocket.SnapshotReplaced(snap).ToJSON(); err == nil {
			client.Send(data)
		}
	}
	h.hub.Register(client)

	log.Info().
		Str("session_id", sessionID).
		Str("client_id", client.ID()).
		Int("session_clients", h.hub.ClientCount(sessionID)).
		Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()
	return nil
}
