package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLimiter(perMinute, burst int, now *time.Time) *RateLimiter {
	return NewRateLimiterWithConfig(perMinute, burst, WithLimiterClock(func() time.Time { return *now }))
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := fixedLimiter(60, 3, &now) // one token per second
	defer rl.Stop()

	id := uuid.New()
	for i := 0; i < 3; i++ {
		ok, remaining, _ := rl.Allow(id)
		require.True(t, ok, "request %d", i+1)
		assert.Equal(t, 2-i, remaining)
	}

	ok, remaining, reset := rl.Allow(id)
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, now.Add(3*time.Second), reset)

	now = now.Add(time.Second)
	ok, _, _ = rl.Allow(id)
	assert.True(t, ok)
}

func TestRateLimiter_SessionsAreIndependent(t *testing.T) {
	now := time.Now()
	rl := fixedLimiter(10, 1, &now)
	defer rl.Stop()

	a, b := uuid.New(), uuid.New()
	ok, _, _ := rl.Allow(a)
	require.True(t, ok)
	ok, _, _ = rl.Allow(a)
	assert.False(t, ok)

	ok, _, _ = rl.Allow(b)
	assert.True(t, ok)
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := fixedLimiter(10, 2, &now)
	defer rl.Stop()

	idle, busy := uuid.New(), uuid.New()
	rl.Allow(idle)
	now = now.Add(LimiterTTL - time.Minute)
	rl.Allow(busy)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 0, rl.Sweep())
}

func sessionContext(e *echo.Echo, sessionID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/view", nil)
	ctx := context.WithValue(req.Context(), SessionIDKey, sessionID)
	rec := httptest.NewRecorder()
	return e.NewContext(req.WithContext(ctx), rec), rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func TestRateLimitMiddleware_PassesRequestsWithoutSession(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, RateLimitMiddleware(rl)(okHandler)(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitMiddleware_NilLimiter(t *testing.T) {
	e := echo.New()
	c, rec := sessionContext(e, uuid.New())
	require.NoError(t, RateLimitMiddleware(nil)(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware_LimitsSession(t *testing.T) {
	e := echo.New()
	now := time.Now()
	rl := fixedLimiter(10, 2, &now)
	defer rl.Stop()

	id := uuid.New()
	for i := 0; i < 2; i++ {
		c, rec := sessionContext(e, id)
		require.NoError(t, RateLimitMiddleware(rl)(okHandler)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	}

	c, rec := sessionContext(e, id)
	require.NoError(t, RateLimitMiddleware(rl)(okHandler)(c))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "6", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	var body problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errorTypeRateLimit, body.Type)
	assert.Equal(t, "/api/v1/view", body.Instance)
}
