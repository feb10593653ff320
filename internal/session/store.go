package session

import (
	"errors"
	"sync"
	"time"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/metrics"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// CleanupInterval is how often expired sessions are swept
	CleanupInterval = time.Minute
	// IdleTTL closes sessions nobody has used for this long
	IdleTTL = 2 * time.Hour
)

var (
	// ErrSessionNotFound is returned for unknown or closed session ids
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when the session's credential has expired
	ErrSessionExpired = errors.New("session expired")
)

// Session is one logged-in dashboard. Each session owns its own view model,
// so selection and search are never shared between users.
type Session struct {
	ID         uuid.UUID
	Credential Credential
	ViewModel  *viewmodel.DashboardViewModel
	CreatedAt  time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns when the session was last used
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// ViewModelFactory builds the view model for a new session
type ViewModelFactory func(sessionID string, cred Credential) *viewmodel.DashboardViewModel

// StoreOption customises a Store
type StoreOption func(*Store)

// WithOnClose registers a hook run after a session is removed
func WithOnClose(fn func(sessionID string)) StoreOption {
	return func(s *Store) { s.onClose = fn }
}

// WithStoreRecorder reports the live session count
func WithStoreRecorder(r metrics.Recorder) StoreOption {
	return func(s *Store) { s.recorder = r }
}

// WithStoreClock overrides the time source
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Store keeps the live sessions in memory
type Store struct {
	sessions map[uuid.UUID]*Session
	mu       sync.RWMutex
	factory  ViewModelFactory
	onClose  func(sessionID string)
	recorder metrics.Recorder
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewStore creates an empty store. Call StartCleanup to sweep expired sessions.
func NewStore(factory ViewModelFactory, opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[uuid.UUID]*Session),
		factory:  factory,
		onClose:  func(string) {},
		recorder: metrics.NoOpRecorder{},
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a session for cred
func (s *Store) Create(cred Credential) *Session {
	id := uuid.New()
	now := s.now()
	sess := &Session{
		ID:         id,
		Credential: cred,
		ViewModel:  s.factory(id.String(), cred),
		CreatedAt:  now,
		lastSeen:   now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	s.recorder.SetActiveSessions(count)
	log.Info().Str("session_id", id.String()).Str("subject", cred.Subject).Msg("Session opened")
	return sess
}

// Get returns the session for id. An expired session is closed and
// reported as ErrSessionExpired.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := s.now()
	if sess.Credential.Expired(now) {
		s.Delete(id)
		return nil, ErrSessionExpired
	}
	sess.touch(now)
	return sess, nil
}

// Delete closes a session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return
	}
	s.recorder.SetActiveSessions(count)
	s.onClose(id.String())
	log.Info().Str("session_id", id.String()).Msg("Session closed")
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes every session whose credential expired or that sat idle
// longer than IdleTTL. It returns how many were closed.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.RLock()
	var stale []uuid.UUID
	for id, sess := range s.sessions {
		if sess.Credential.Expired(now) || now.Sub(sess.LastSeen()) > IdleTTL {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range stale {
		s.Delete(id)
	}
	return len(stale)
}

// StartCleanup sweeps the store every CleanupInterval until Stop is called
func (s *Store) StartCleanup() {
	go func() {
		ticker := time.NewTicker(CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Debug().Int("closed", n).Msg("Swept stale sessions")
				}
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
