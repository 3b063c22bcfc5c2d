// Package store keeps candidate sessions in memory. Each session has its own
// lock, held for the whole of a command, so commands on one session run one
// at a time while different sessions proceed independently.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alkime/assessor/internal/interview"
	"github.com/alkime/assessor/pkg/channels"
	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or evicted session ids.
var ErrNotFound = errors.New("session not found")

const (
	// feedBuffer is how many unread changes a slow subscriber may lag behind.
	feedBuffer = 16
	// subscriberWait bounds how long a command waits on a full subscriber
	// before dropping the change for it.
	subscriberWait = 50 * time.Millisecond
)

// Change describes a session after a command ran against it.
type Change struct {
	SessionID     string          `json:"sessionId"`
	Phase         interview.Phase `json:"-"`
	PhaseName     string          `json:"phase"`
	QuestionIndex int             `json:"questionIndex"`
	At            time.Time       `json:"at"`
}

// NewChange describes session as it stands at at.
func NewChange(id string, session *interview.Session, at time.Time) Change {
	return Change{
		SessionID:     id,
		Phase:         session.Phase,
		PhaseName:     session.Phase.String(),
		QuestionIndex: session.QuestionIndex,
		At:            at,
	}
}

type entry struct {
	mu       sync.Mutex
	session  *interview.Session
	feed     *channels.Feed[Change]
	lastUsed time.Time
	removed  bool
}

// SessionStore manages session storage
type SessionStore struct {
	sessions map[string]*entry
	mu       sync.RWMutex
	now      func() time.Time
}

// Option configures a SessionStore.
type Option func(*SessionStore)

// WithClock overrides the time source used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) {
		s.now = now
	}
}

// NewSessionStore creates a new session store
func NewSessionStore(opts ...Option) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create stores session under a fresh id and returns the id.
func (s *SessionStore) Create(session *interview.Session) string {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &entry{
		session:  session,
		feed:     channels.NewFeed[Change](feedBuffer),
		lastUsed: s.now(),
	}

	return id
}

// With runs fn on the session while holding its lock. Subscribers are told
// about the resulting state whether or not fn fails, since a failed command
// may still have changed the session.
func (s *SessionStore) With(id string, fn func(*interview.Session) error) error {
	e, ok := s.lookup(id)
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return ErrNotFound
	}

	err := fn(e.session)

	e.lastUsed = s.now()
	e.feed.Publish(NewChange(id, e.session, e.lastUsed))

	return err
}

// Snapshot returns a copy of the session taken under its lock. Transcripts
// are copied so the caller may read them after the lock is released.
func (s *SessionStore) Snapshot(id string) (interview.Session, error) {
	e, ok := s.lookup(id)
	if !ok {
		return interview.Session{}, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return interview.Session{}, ErrNotFound
	}

	return e.session.Clone(), nil
}

// Subscribe returns a channel of changes for one session and a function to
// stop receiving them. The channel closes when the session is deleted.
func (s *SessionStore) Subscribe(id string) (<-chan Change, func(), error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, nil, ErrNotFound
	}

	ch, cancel := e.feed.SubscribeWithTimeout(subscriberWait)

	return ch, cancel, nil
}

// Dropped returns how many changes the session's current subscribers have
// missed. Unknown sessions report zero.
func (s *SessionStore) Dropped(id string) int {
	e, ok := s.lookup(id)
	if !ok {
		return 0
	}

	total := 0
	for _, st := range e.feed.Stats() {
		total += st.Dropped
	}

	return total
}

// Delete removes a session. It waits for any running command on it.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return false
	}

	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	e.feed.Close()

	return true
}

// Exists checks if a session id exists
func (s *SessionStore) Exists(id string) bool {
	_, ok := s.lookup(id)
	return ok
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Sweep evicts sessions unused for longer than ttl. Sessions with a command
// in flight are skipped. It returns the number evicted.
func (s *SessionStore) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	var evicted []*entry
	for id, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(cutoff) {
			e.removed = true
			delete(s.sessions, id)
			evicted = append(evicted, e)
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()

	for _, e := range evicted {
		e.feed.Close()
	}

	return len(evicted)
}

// Janitor sweeps idle sessions every interval until ctx is cancelled.
func (s *SessionStore) Janitor(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ttl); n > 0 {
				slog.Info("Evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}

func (s *SessionStore) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}
