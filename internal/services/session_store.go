package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/advisormatch-backend/internal/pkg/errors"
	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
)

// DefaultSessionTTL bounds how long an abandoned exploration session stays
// resident. Expiry is checked lazily on Get, not by a background sweep.
const DefaultSessionTTL = time.Hour

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Preferences struct {
	Liked    []string `json:"liked"`
	Disliked []string `json:"disliked"`
	Curious  []string `json:"curious"`
}

// Session is the per-exploration state. It lives only in process memory and
// is owned by the SessionStore; the explorer borrows a reference for the
// duration of one request.
type Session struct {
	ID              string
	InitialInterest string
	ShownPaperIDs   []int64
	Conversation    []Turn
	Preferences     Preferences
	Rounds          int
	CreatedAt       time.Time
}

// SessionStore is a mutex-guarded in-memory session map. Requests for
// different sessions run concurrently, so every map access takes the lock.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewSessionStore(ttl time.Duration, baseLog *logger.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: map[string]*Session{},
		ttl:      ttl,
		now:      time.Now,
		log:      baseLog.With("service", "SessionStore"),
	}
}

func (ss *SessionStore) Create(initialInterest string) *Session {
	session := &Session{
		ID:              uuid.NewString(),
		InitialInterest: initialInterest,
		CreatedAt:       ss.now(),
	}

	ss.mu.Lock()
	ss.sessions[session.ID] = session
	ss.mu.Unlock()

	ss.log.Debug("Exploration session created", "session_id", session.ID)
	return session
}

// Get returns the session or ErrNotFound when the id is unknown or the
// session has outlived its TTL. Expired sessions are evicted on the spot.
func (ss *SessionStore) Get(sessionID string) (*Session, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	session, ok := ss.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, errors.ErrNotFound)
	}
	if ss.now().Sub(session.CreatedAt) > ss.ttl {
		delete(ss.sessions, sessionID)
		ss.log.Debug("Exploration session expired", "session_id", sessionID)
		return nil, fmt.Errorf("session %s expired: %w", sessionID, errors.ErrNotFound)
	}
	return session, nil
}

// Delete removes the session. Deleting an absent id is a no-op.
func (ss *SessionStore) Delete(sessionID string) {
	ss.mu.Lock()
	delete(ss.sessions, sessionID)
	ss.mu.Unlock()
}

// Len reports the number of resident sessions, expired or not.
func (ss *SessionStore) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}
