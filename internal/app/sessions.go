package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/oyhutmarket/storefront/internal/cart"
	"github.com/oyhutmarket/storefront/internal/checkout"
)

var ErrSessionNotFound = errors.New("checkout session not found")

const (
	DefaultSessionTTL   = 30 * time.Minute
	DefaultSessionLimit = 500
)

type SessionOption func(*Sessions)

// WithSessionTTL sets how long an untouched session is kept.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *Sessions) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSessionLimit caps the number of open sessions. Starting one more
// evicts the least recently used.
func WithSessionLimit(limit int) SessionOption {
	return func(s *Sessions) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Sessions) { s.now = now }
}

type sessionEntry struct {
	session  *checkout.Session
	lastUsed time.Time
}

// Sessions tracks open checkout sessions by id. Abandoned sessions expire
// after the TTL and are swept whenever a new one starts.
type Sessions struct {
	deps  checkout.Deps
	ttl   time.Duration
	limit int
	now   func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
}

func NewSessions(deps checkout.Deps, opts ...SessionOption) *Sessions {
	s := &Sessions{
		deps:     deps,
		ttl:      DefaultSessionTTL,
		limit:    DefaultSessionLimit,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a session over a copy of items.
func (s *Sessions) Start(items []cart.LineItem) (string, *checkout.Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", nil, fmt.Errorf("app: failed to generate session id: %w", err)
	}

	session := checkout.NewSession(items, s.deps)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	for len(s.sessions) >= s.limit {
		s.evictOldestLocked()
	}
	s.sessions[id] = &sessionEntry{session: session, lastUsed: now}

	return id.String(), session, nil
}

// Get returns a live session and marks it used.
func (s *Sessions) Get(id string) (*checkout.Session, error) {
	key, err := uuid.FromString(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[key]
	now := s.now()
	if !ok || now.Sub(entry.lastUsed) > s.ttl {
		delete(s.sessions, key)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	entry.lastUsed = now
	return entry.session, nil
}

// Discard forgets a session. Unknown ids are ignored.
func (s *Sessions) Discard(id string) {
	key, err := uuid.FromString(id)
	if err != nil {
		return
	}

	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
}

// Finish discards the session once it is confirmed and reports whether it did.
func (s *Sessions) Finish(id string, session *checkout.Session) bool {
	if session.Step() != checkout.StepConfirmed {
		return false
	}
	s.Discard(id)
	return true
}

// Sweep drops every expired session and returns how many it dropped.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *Sessions) sweepLocked(now time.Time) int {
	dropped := 0
	for key, entry := range s.sessions {
		if now.Sub(entry.lastUsed) > s.ttl {
			delete(s.sessions, key)
			dropped++
		}
	}
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("app: expired checkout sessions swept")
	}
	return dropped
}

func (s *Sessions) evictOldestLocked() {
	var (
		oldestKey uuid.UUID
		oldest    time.Time
		found     bool
	)
	for key, entry := range s.sessions {
		if !found || entry.lastUsed.Before(oldest) {
			oldestKey, oldest, found = key, entry.lastUsed, true
		}
	}
	if found {
		delete(s.sessions, oldestKey)
		log.Warn().Stringer("session_id", oldestKey).Msg("app: checkout session limit reached, evicted least recently used")
	}
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
