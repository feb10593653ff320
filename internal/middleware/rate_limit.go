package middleware

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// LimiterSweepInterval is how often idle session limiters are dropped
	LimiterSweepInterval = 5 * time.Minute
	// LimiterTTL drops a session's limiter after this long without requests
	LimiterTTL = 10 * time.Minute
)

// RateLimiter throttles each dashboard session independently so one busy
// browser tab cannot exhaust the shared collaborator budget
type RateLimiter struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*sessionLimiter
	perMinute int
	every     rate.Limit
	burst     int
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

type sessionLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiterOption customises a RateLimiter
type RateLimiterOption func(*RateLimiter)

// WithLimiterClock overrides the time source
func WithLimiterClock(now func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) { r.now = now }
}

// NewRateLimiterWithConfig allows perMinute requests per session with
// bursts of up to burst, and starts the idle sweep
func NewRateLimiterWithConfig(perMinute, burst int, opts ...RateLimiterOption) *RateLimiter {
	r := &RateLimiter{
		sessions:  make(map[uuid.UUID]*sessionLimiter),
		perMinute: perMinute,
		every:     rate.Limit(float64(perMinute) / 60),
		burst:     burst,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	go r.sweepLoop()
	return r
}

// Allow spends one token from sessionID's bucket. It also returns the
// tokens left and when the bucket will be full again.
func (r *RateLimiter) Allow(sessionID uuid.UUID) (ok bool, remaining int, reset time.Time) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	sl, found := r.sessions[sessionID]
	if !found {
		sl = &sessionLimiter{bucket: rate.NewLimiter(r.every, r.burst)}
		r.sessions[sessionID] = sl
	}
	sl.lastSeen = now

	ok = sl.bucket.AllowN(now, 1)
	tokens := sl.bucket.TokensAt(now)
	if tokens < 0 {
		tokens = 0
	}
	missing := float64(r.burst) - tokens
	reset = now.Add(time.Duration(missing / float64(r.every) * float64(time.Second)))
	return ok, int(math.Floor(tokens)), reset
}

// Sweep drops limiters idle for longer than LimiterTTL and returns how many
func (r *RateLimiter) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for id, sl := range r.sessions {
		if now.Sub(sl.lastSeen) > LimiterTTL {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}

func (r *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(LimiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Debug().Int("dropped", n).Msg("Dropped idle session limiters")
			}
		case <-r.stopCh:
			return
		}
	}
}

// Stop ends the sweep goroutine
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimitMiddleware rejects a session's requests with 429 once its
// bucket is empty. Requests without a session pass through.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID := GetSessionID(c)
			if rl == nil || sessionID == uuid.Nil {
				return next(c)
			}

			ok, remaining, reset := rl.Allow(sessionID)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if ok {
				return next(c)
			}

			// One token comes back every 60/perMinute seconds
			retryAfter := int(math.Ceil(60 / float64(rl.perMinute)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))

			log.Warn().
				Str("session_id", sessionID.String()).
				Int("retry_after", retryAfter).
				Msg("Rate limit exceeded")

			return tooManyRequestsError(c, fmt.Sprintf("Too many requests, retry in %d seconds", retryAfter))
		}
	}
}
