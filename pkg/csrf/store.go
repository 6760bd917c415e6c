// Package csrf keeps the single outstanding CSRF token of every signed-in user.
//
// Entries live in process memory only: a restart drops them and several server
// instances do not share them. Running more than one instance therefore needs
// sticky sessions or a shared store in front of this one.
package csrf

import (
	"crypto/subtle"
	"sync"
	"time"

	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

// DefaultTTL is how long an unused token stays valid.
const DefaultTTL = 10 * time.Minute

type entry struct {
	token    string
	issuedAt time.Time
}

// Store maps user id to its current token. At most one entry exists per user;
// storing a new token silently invalidates the previous one.
type Store struct {
	mu      sync.Mutex
	entries map[int64]entry
	ttl     time.Duration
	now     func() time.Time
	newTok  func() (string, error)
	log     *zap.Logger
}

func NewStore(ttl time.Duration, log *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[int64]entry),
		ttl:     ttl,
		now:     time.Now,
		newTok:  utils.GenerateCSRFToken,
		log:     log.With(zap.String("component", "csrf")),
	}
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Issue generates a fresh opaque token without storing it.
func (s *Store) Issue() (string, error) {
	return s.newTok()
}

// Store upserts token for userID, replacing any previous entry.
func (s *Store) Store(userID int64, token string) {
	s.mu.Lock()
	s.entries[userID] = entry{token: token, issuedAt: s.now()}
	s.mu.Unlock()
}

// IssueFor mints a token and stores it for userID in one step.
func (s *Store) IssueFor(userID int64) (string, error) {
	token, err := s.newTok()
	if err != nil {
		return "", err
	}
	s.Store(userID, token)
	return token, nil
}

// Validate reports whether token is the live token of userID. An expired
// entry is evicted on the way.
func (s *Store) Validate(userID int64, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked(userID, token)
}

func (s *Store) validateLocked(userID int64, token string) bool {
	stored, ok := s.entries[userID]
	if !ok {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(stored.token), []byte(token)) != 1 {
		return false
	}
	if s.now().Sub(stored.issuedAt) > s.ttl {
		delete(s.entries, userID)
		return false
	}
	return true
}

// Consume validates token and, on success, replaces it with a new one under
// the same lock. Two requests presenting the same token cannot both succeed.
func (s *Store) Consume(userID int64, token string) (string, bool, error) {
	next, err := s.newTok()
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.validateLocked(userID, token) {
		return "", false, nil
	}
	s.entries[userID] = entry{token: next, issuedAt: s.now()}
	return next, true, nil
}

// Invalidate removes the entry of userID unconditionally.
func (s *Store) Invalidate(userID int64) {
	s.mu.Lock()
	delete(s.entries, userID)
	s.mu.Unlock()
}

// Peek returns the stored token without touching expiry.
func (s *Store) Peek(userID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.entries[userID]
	return stored.token, ok
}

// Sweep drops every expired entry and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	removed := 0

	s.mu.Lock()
	for userID, stored := range s.entries {
		if now.Sub(stored.issuedAt) > s.ttl {
			delete(s.entries, userID)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.log.Debug("Swept expired CSRF tokens", zap.Int("removed", removed))
	}
	return removed
}

// Len is the number of entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
