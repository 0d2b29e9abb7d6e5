package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
)

// DefaultSessionTTL is how long a login stays valid without re-authenticating.
const DefaultSessionTTL = 12 * time.Hour

// Session is one issued login. Sessions are immutable after creation.
type Session struct {
	ID        string
	User      User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Sessions is an in-memory session store keyed by opaque ID. Logins are rare
// and sessions small, so a map with a TTL sweep is all this needs.
type Sessions struct {
	mu   sync.RWMutex
	byID map[string]Session
	ttl  time.Duration

	now func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		byID: make(map[string]Session),
		ttl:  ttl,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a new session for user.
func (s *Sessions) Create(user User) Session {
	now := s.now()
	session := Session{
		ID:        randomToken(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.byID[session.ID] = session
	s.mu.Unlock()
	return session
}

// Lookup returns the session for id if it exists and has not expired.
func (s *Sessions) Lookup(id string) (Session, bool) {
	s.mu.RLock()
	session, ok := s.byID[id]
	s.mu.RUnlock()

	if !ok || s.now().After(session.ExpiresAt) {
		return Session{}, false
	}
	return session, true
}

// Revoke deletes the session for id. Unknown IDs are a no-op.
func (s *Sessions) Revoke(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

// PruneExpired removes expired sessions and reports how many went.
func (s *Sessions) PruneExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.byID {
		if now.After(session.ExpiresAt) {
			delete(s.byID, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions, expired included until pruned.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Maintain prunes expired sessions on a ticker until ctx is cancelled.
func (s *Sessions) Maintain(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	log := logging.FromContext(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.PruneExpired(); removed > 0 {
				log.Info("login sessions pruned", "removed", removed)
			}
		}
	}
}

// randomToken returns a URL-safe random token for state values and session
// IDs.
func randomToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
