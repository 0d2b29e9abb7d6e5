package core

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session lifecycle errors.
var (
	ErrImportInProgress = errors.New("import already in progress")
	ErrSessionNotFound  = errors.New("import session not found")
)

// Defaults for session housekeeping.
const (
	DefaultCloseDelay = 5 * time.Second
	DefaultSessionTTL = 30 * time.Minute
)

// importSession is the mutable per-league record behind SessionSnapshot.
type importSession struct {
	id         uuid.UUID
	leagueID   uuid.UUID
	state      ImportState
	summary    *ImportSummary
	errMsg     string
	startedAt  time.Time
	finishedAt time.Time
	dismiss    *time.Timer
}

// SessionStore tracks one import session per league. A league can have at
// most one import in flight; finished sessions linger so the UI can poll
// the outcome, then disappear either by acknowledgement, by the timed
// auto-dismiss (clean results only), or by TTL sweep.
type SessionStore struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*importSession
	closeDelay time.Duration
	ttl        time.Duration
	now        func() time.Time
}

// NewSessionStore creates a session store. Zero durations fall back to
// DefaultCloseDelay and DefaultSessionTTL.
func NewSessionStore(closeDelay, ttl time.Duration) *SessionStore {
	if closeDelay <= 0 {
		closeDelay = DefaultCloseDelay
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions:   make(map[uuid.UUID]*importSession),
		closeDelay: closeDelay,
		ttl:        ttl,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Begin claims the league's import slot and returns the new session ID.
// Returns ErrImportInProgress if an import is already running. A finished
// session that has not been acknowledged yet is replaced: starting a new
// import implicitly dismisses the previous outcome.
func (ss *SessionStore) Begin(leagueID uuid.UUID) (uuid.UUID, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if existing, ok := ss.sessions[leagueID]; ok {
		if existing.state == StateImporting {
			return uuid.Nil, ErrImportInProgress
		}
		if existing.dismiss != nil {
			existing.dismiss.Stop()
		}
	}

	s := &importSession{
		id:        uuid.New(),
		leagueID:  leagueID,
		state:     StateImporting,
		startedAt: ss.now(),
	}
	ss.sessions[leagueID] = s
	return s.id, nil
}

// Complete records the import result and moves the session to its terminal
// state. A clean summary (zero row errors) becomes StateSuccess and is
// scheduled for auto-dismissal; a summary with row errors stays visible,
// as StatePartialSuccess when any rows landed and StateFailed otherwise.
func (ss *SessionStore) Complete(leagueID uuid.UUID, summary ImportSummary) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[leagueID]
	if !ok || s.state != StateImporting {
		return ErrSessionNotFound
	}

	s.summary = &summary
	s.finishedAt = ss.now()

	switch {
	case summary.Clean():
		s.state = StateSuccess
		ss.scheduleDismiss(leagueID, s)
	case summary.SuccessCount > 0 || summary.SkippedCount > 0:
		s.state = StatePartialSuccess
	default:
		s.state = StateFailed
	}
	return nil
}

// Fail records a fatal import failure. The message should already be safe
// to show to a user.
func (ss *SessionStore) Fail(leagueID uuid.UUID, msg string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[leagueID]
	if !ok || s.state != StateImporting {
		return ErrSessionNotFound
	}

	s.state = StateFailed
	s.errMsg = msg
	s.finishedAt = ss.now()
	return nil
}

// Abandon removes the league's session without recording an outcome. Used
// when the caller cancelled: a cancelled import is not an error and must
// leave no failed session behind.
func (ss *SessionStore) Abandon(leagueID uuid.UUID) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if s, ok := ss.sessions[leagueID]; ok {
		if s.dismiss != nil {
			s.dismiss.Stop()
		}
		delete(ss.sessions, leagueID)
	}
}

// Ack acknowledges a finished session and resets the league to idle.
// Returns ErrImportInProgress while the import is still running and
// ErrSessionNotFound when there is nothing to acknowledge.
func (ss *SessionStore) Ack(leagueID uuid.UUID) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[leagueID]
	if !ok {
		return ErrSessionNotFound
	}
	if s.state == StateImporting {
		return ErrImportInProgress
	}
	if s.dismiss != nil {
		s.dismiss.Stop()
	}
	delete(ss.sessions, leagueID)
	return nil
}

// Snapshot returns the league's current session state. Leagues with no
// session report StateIdle rather than an error so the UI can poll freely.
func (ss *SessionStore) Snapshot(leagueID uuid.UUID) SessionSnapshot {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[leagueID]
	if !ok {
		return SessionSnapshot{LeagueID: leagueID, State: StateIdle}
	}

	snap := SessionSnapshot{
		ID:        s.id,
		LeagueID:  s.leagueID,
		State:     s.state,
		Error:     s.errMsg,
		StartedAt: s.startedAt,
	}
	if s.summary != nil {
		copied := *s.summary
		copied.Errors = append(make([]ImportRowError, 0, len(s.summary.Errors)), s.summary.Errors...)
		snap.Summary = &copied
	}
	if !s.finishedAt.IsZero() {
		ft := s.finishedAt
		snap.FinishedAt = &ft
	}
	return snap
}

// Count returns the number of tracked sessions, importing or finished.
func (ss *SessionStore) Count() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

// PruneExpired drops finished sessions older than the TTL and returns how
// many were removed. Running imports are never pruned; their lifetime is
// bounded by the import context timeout.
func (ss *SessionStore) PruneExpired() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	cutoff := ss.now().Add(-ss.ttl)
	removed := 0
	for leagueID, s := range ss.sessions {
		if s.state == StateImporting {
			continue
		}
		if s.finishedAt.Before(cutoff) {
			if s.dismiss != nil {
				s.dismiss.Stop()
			}
			delete(ss.sessions, leagueID)
			removed++
		}
	}
	return removed
}

// scheduleDismiss arms the auto-close timer for a clean result. Caller
// holds the lock. The timer only removes the session if it is still the
// same one and still in StateSuccess; anything else (a new import, an
// explicit ack) wins the race.
func (ss *SessionStore) scheduleDismiss(leagueID uuid.UUID, s *importSession) {
	sessionID := s.id
	s.dismiss = time.AfterFunc(ss.closeDelay, func() {
		ss.mu.Lock()
		defer ss.mu.Unlock()

		current, ok := ss.sessions[leagueID]
		if !ok || current.id != sessionID || current.state != StateSuccess {
			return
		}
		delete(ss.sessions, leagueID)
	})
}
