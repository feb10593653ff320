package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/session"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/testutil"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAuthenticator is a test double for the finance API's auth endpoints
type mockAuthenticator struct {
	LoginFn    func(ctx context.Context, input domain.LoginInput) (session.Credential, error)
	RegisterFn func(ctx context.Context, input domain.RegisterInput) (*domain.User, error)
}

func (m *mockAuthenticator) Login(ctx context.Context, input domain.LoginInput) (session.Credential, error) {
	return m.LoginFn(ctx, input)
}

func (m *mockAuthenticator) Register(ctx context.Context, input domain.RegisterInput) (*domain.User, error) {
	return m.RegisterFn(ctx, input)
}

func newAuthStore(collab *testutil.MockCollaborator) *session.Store {
	return session.NewStore(func(sessionID string, cred session.Credential) *viewmodel.DashboardViewModel {
		return viewmodel.New(collab)
	})
}

func TestLogin_Success(t *testing.T) {
	collab := seededCollaborator()
	store := newAuthStore(collab)
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	auth := &mockAuthenticator{LoginFn: func(ctx context.Context, input domain.LoginInput) (session.Credential, error) {
		assert.Equal(t, "test@example.com", input.Email)
		return session.Credential{Token: "tok", Subject: "1", ExpiresAt: expires}, nil
	}}
	h := NewAuthHandler(auth, store)

	c, rec := newSessionContext(http.MethodPost, "/api/v1/auth/login", `{"email": " test@example.com ", "password": "secret123"}`, nil)
	require.NoError(t, h.Login(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Test User", resp.User.Name)
	require.NotNil(t, resp.ExpiresAt)
	assert.True(t, expires.Equal(*resp.ExpiresAt))
	assert.Empty(t, resp.LoadError)

	id, err := uuid.Parse(resp.SessionID)
	require.NoError(t, err)
	sess, err := store.Get(id)
	require.NoError(t, err)
	assert.NotNil(t, sess.ViewModel.Snapshot())
}

func TestLogin_BadCredentials(t *testing.T) {
	store := newAuthStore(seededCollaborator())
	auth := &mockAuthenticator{LoginFn: func(ctx context.Context, input domain.LoginInput) (session.Credential, error) {
		return session.Credential{}, &domain.APIError{Kind: domain.ErrAuth, Status: 401}
	}}
	h := NewAuthHandler(auth, store)

	c, rec := newSessionContext(http.MethodPost, "/api/v1/auth/login", `{"email": "test@example.com", "password": "wrong-pass"}`, nil)
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect email or password", decodeProblem(t, rec).Detail)
	assert.Equal(t, 0, store.Len())
}

func TestLogin_ValidationSkipsAPI(t *testing.T) {
	called := false
	auth := &mockAuthenticator{LoginFn: func(ctx context.Context, input domain.LoginInput) (session.Credential, error) {
		called = true
		return session.Credential{}, nil
	}}
	h := NewAuthHandler(auth, newAuthStore(seededCollaborator()))

	c, rec := newSessionContext(http.MethodPost, "/api/v1/auth/login", `{"email": "not-an-email", "password": ""}`, nil)
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestLogin_InitialLoadFailureKeepsSession(t *testing.T) {
	collab := seededCollaborator()
	collab.DashboardOverviewFn = func(ctx context.Context) (*domain.DashboardOverview, error) {
		return nil, &domain.APIError{Kind: domain.ErrNetwork, Err: errors.New("timeout")}
	}
	store := newAuthStore(collab)
	auth := &mockAuthenticator{LoginFn: func(ctx context.Context, input domain.LoginInput) (session.Credential, error) {
		return session.Credential{Token: "tok"}, nil
	}}
	h := NewAuthHandler(auth, store)

	c, rec := newSessionContext(http.MethodPost, "/api/v1/auth/login", `{"email": "test@example.com", "password": "secret123"}`, nil)
	require.NoError(t, h.Login(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.LoadError)
	assert.Nil(t, resp.ExpiresAt)
	assert.Equal(t, 1, store.Len())
}

func TestRegister(t *testing.T) {
	auth := &mockAuthenticator{RegisterFn: func(ctx context.Context, input domain.RegisterInput) (*domain.User, error) {
		return &domain.User{ID: 7, Name: input.Name, Email: input.Email}, nil
	}}
	h := NewAuthHandler(auth, newAuthStore(seededCollaborator()))

	c, rec := newSessionContext(http.MethodPost, "/api/v1/auth/register", `{"name": " Asha ", "email": "asha@example.com", "password": "secret123"}`, nil)
	require.NoError(t, h.Register(c))

	require.Equal(t, http.StatusCreated, rec.Code)
	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "Asha", user.Name)
}

func TestRegister_Conflict(t *testing.T) {
	auth := &mockAuthenticator{RegisterFn: func(ctx context.Context, input domain.RegisterInput) (*domain.User, error) {
		return nil, &domain.APIError{Kind: domain.ErrConflict, Status: 400, Detail: "Email already registered"}
	}}
	h := NewAuthHandler(auth, newAuthStore(seededCollaborator()))

	c, rec := newSessionContext(http.MethodPost, "/api/v1/auth/register", `{"name": "Asha", "email": "asha@example.com", "password": "secret123"}`, nil)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already registered", decodeProblem(t, rec).Detail)
}

func TestLogout(t *testing.T) {
	store := newAuthStore(seededCollaborator())
	h := NewAuthHandler(&mockAuthenticator{}, store)
	sess := store.Create(session.Credential{Token: "tok"})

	c, rec := newSessionContext(http.MethodPost, "/api/v1/auth/logout", "", sess)
	require.NoError(t, h.Logout(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, store.Len())
}

func TestMe_LoadsWhenEmpty(t *testing.T) {
	collab := seededCollaborator()
	store := newAuthStore(collab)
	h := NewAuthHandler(&mockAuthenticator{}, store)
	sess := store.Create(session.Credential{Token: "tok"})

	c, rec := newSessionContext(http.MethodGet, "/api/v1/auth/me", "", sess)
	require.NoError(t, h.Me(c))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, collab.CallCount("DashboardOverview"))

	var user domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "test@example.com", user.Email)
}
