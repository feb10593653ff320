package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/session"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// SessionKey is the context key for the caller's session
	SessionKey contextKey = "session"
	// SessionIDKey is the context key for the session id
	SessionIDKey contextKey = "session_id"
)

// SessionHeader carries the session id returned by login
const SessionHeader = "X-Session-ID"

// SessionLookup resolves a session id to a live session
type SessionLookup interface {
	Get(id uuid.UUID) (*session.Session, error)
}

// AuthMiddleware resolves the caller's session
type AuthMiddleware struct {
	sessions SessionLookup
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(sessions SessionLookup) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate returns an Echo middleware that requires a live session.
// The id is read from X-Session-ID, then from a "Session <id>"
// Authorization header, then from the session query parameter.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := SessionIDFromRequest(c)
			if raw == "" {
				return unauthorizedError(c, "Missing session")
			}

			id, err := uuid.Parse(raw)
			if err != nil {
				return unauthorizedError(c, "Invalid session id")
			}

			sess, err := m.sessions.Get(id)
			if err != nil {
				log.Debug().Err(err).Str("session_id", raw).Msg("Session lookup failed")
				if errors.Is(err, session.ErrSessionExpired) {
					return unauthorizedError(c, "Session expired, please log in again")
				}
				return unauthorizedError(c, "Unknown session")
			}

			ctx := context.WithValue(c.Request().Context(), SessionKey, sess)
			ctx = context.WithValue(ctx, SessionIDKey, sess.ID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// SessionIDFromRequest extracts the raw session id, or "" when none was sent
func SessionIDFromRequest(c echo.Context) string {
	if id := strings.TrimSpace(c.Request().Header.Get(SessionHeader)); id != "" {
		return id
	}
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "session") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(c.QueryParam("session"))
}

// GetSession extracts the session from the context
func GetSession(c echo.Context) *session.Session {
	if sess, ok := c.Request().Context().Value(SessionKey).(*session.Session); ok {
		return sess
	}
	return nil
}

// GetSessionID extracts the session id from the context
func GetSessionID(c echo.Context) uuid.UUID {
	if id, ok := c.Request().Context().Value(SessionIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
