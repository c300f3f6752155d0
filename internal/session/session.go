// Package session holds the in-process authentication session cache. Sessions
// live only in memory: every entry carries an absolute expiry (activity does
// not extend it) and expired entries are treated as absent on lookup, with a
// background janitor sweeping them out so long uptimes do not leak memory.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"fogonpos/backend/internal/domain"
)

const DefaultTTL = 12 * time.Hour

var (
	ErrNoSession = errors.New("invalid or expired session")
	ErrForbidden = errors.New("role not authorized")
)

// Store is an explicit handle passed to the command layer; there is no
// package-level singleton. The underlying cache guards its map with a
// reader-writer lock, so lookups run concurrently and never block on I/O.
type Store struct {
	ttl   time.Duration
	cache *gocache.Cache
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:   ttl,
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// Create issues a fresh opaque token for the user and stores the session with
// an absolute expiry of now + TTL.
func (s *Store) Create(user domain.User) domain.Session {
	sess := domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		TenantID:  user.TenantID,
		BranchID:  user.BranchID,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	s.cache.Set(sess.Token, sess, s.ttl)
	return sess
}

// Get returns the session only if present and unexpired. The bound is
// inclusive: a session is already gone at exactly ExpiresAt, which the
// cache's own strict comparison would still let through.
func (s *Store) Get(token string) (domain.Session, bool) {
	v, ok := s.cache.Get(token)
	if !ok {
		return domain.Session{}, false
	}
	sess, ok := v.(domain.Session)
	if !ok || !time.Now().UTC().Before(sess.ExpiresAt) {
		s.cache.Delete(token)
		return domain.Session{}, false
	}
	return sess, true
}

// Delete removes the entry unconditionally; deleting an absent token is a no-op.
func (s *Store) Delete(token string) {
	s.cache.Delete(token)
}

func (s *Store) Require(token string) (domain.Session, error) {
	sess, ok := s.Get(token)
	if !ok {
		return domain.Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *Store) RequireRole(token string, role domain.Role) (domain.Session, error) {
	sess, err := s.Require(token)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.Role != role {
		return domain.Session{}, ErrForbidden
	}
	return sess, nil
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}
