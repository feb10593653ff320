package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/session"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Authenticator exchanges user credentials with the finance API
type Authenticator interface {
	Login(ctx context.Context, input domain.LoginInput) (session.Credential, error)
	Register(ctx context.Context, input domain.RegisterInput) (*domain.User, error)
}

// SessionManager opens and closes dashboard sessions
type SessionManager interface {
	Create(cred session.Credential) *session.Session
	Delete(id uuid.UUID)
}

// AuthHandler handles login, registration and logout
type AuthHandler struct {
	auth     Authenticator
	sessions SessionManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth Authenticator, sessions SessionManager) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
	}
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	SessionID string      `json:"sessionId"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
	User      domain.User `json:"user"`
	LoadError string      `json:"loadError,omitempty"`
}

// Login godoc
// @Summary Log in
// @Description Exchanges email and password for a dashboard session and loads the first snapshot
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.LoginInput true "Credentials"
// @Success 201 {object} LoginResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var input domain.LoginInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input.Email = strings.TrimSpace(input.Email)
	if err := validation.Validate(input); err != nil {
		return respondError(c, err, "log in")
	}

	cred, err := h.auth.Login(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			return NewUnauthorizedError(c, "Incorrect email or password")
		}
		return respondError(c, err, "log in")
	}

	sess := h.sessions.Create(cred)

	resp := LoginResponse{SessionID: sess.ID.String()}
	if !cred.ExpiresAt.IsZero() {
		expires := cred.ExpiresAt
		resp.ExpiresAt = &expires
	}

	// The session is usable even if the first load fails; the client can reload
	snap, err := sess.ViewModel.Load(c.Request().Context())
	if err != nil {
		log.Warn().Err(err).Str("session_id", resp.SessionID).Msg("Initial dashboard load failed")
		resp.LoadError = err.Error()
	} else {
		resp.User = snap.User
	}

	log.Info().Str("session_id", resp.SessionID).Str("subject", cred.Subject).Msg("User logged in")
	return c.JSON(http.StatusCreated, resp)
}

// Register godoc
// @Summary Register
// @Description Creates a user in the finance API
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.RegisterInput true "New user"
// @Success 201 {object} domain.User
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var input domain.RegisterInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := validation.Validate(input); err != nil {
		return respondError(c, err, "register")
	}

	user, err := h.auth.Register(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err, "register")
	}

	log.Info().Int64("user_id", user.ID).Msg("User registered")
	return c.JSON(http.StatusCreated, user)
}

// Logout godoc
// @Summary Log out
// @Description Closes the session and disconnects its WebSocket clients
// @Tags auth
// @Security SessionAuth
// @Success 204
// @Failure 401 {object} ProblemDetails
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	id := middleware.GetSessionID(c)
	if id == uuid.Nil {
		return NewUnauthorizedError(c, "Session required")
	}
	h.sessions.Delete(id)
	return c.NoContent(http.StatusNoContent)
}

// Me godoc
// @Summary Current user
// @Description Returns the user of the cached snapshot
// @Tags auth
// @Produce json
// @Security SessionAuth
// @Success 200 {object} domain.User
// @Failure 401 {object} ProblemDetails
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	sess := middleware.GetSession(c)
	if sess == nil {
		return NewUnauthorizedError(c, "Session required")
	}
	snap := sess.ViewModel.Snapshot()
	if snap == nil {
		if _, err := sess.ViewModel.Load(c.Request().Context()); err != nil && !errors.Is(err, domain.ErrStaleResponse) {
			return respondError(c, err, "load user")
		}
		if snap = sess.ViewModel.Snapshot(); snap == nil {
			return NewUpstreamError(c, "Dashboard is still loading")
		}
	}
	return c.JSON(http.StatusOK, snap.User)
}
