package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formkit/pkg/profile"
)

// Session is one open profile form. Its mutex serialises every handler that
// touches the form, which keeps the control tree single-writer.
type Session struct {
	ID      string
	Kind    profile.Kind
	Created time.Time

	mu      sync.Mutex
	profile profile.Profile
	closed  bool
}

// Do runs fn with exclusive access to the session's profile. It reports
// false when the session was closed in the meantime.
func (s *Session) Do(fn func(p profile.Profile)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	fn(s.profile)
	return true
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.profile.Close()
}

// SessionStore manages open form sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Add stores p under a new id.
func (s *SessionStore) Add(kind profile.Kind, p profile.Profile) *Session {
	sess := &Session{
		ID:      uuid.NewString(),
		Kind:    kind,
		Created: time.Now(),
		profile: p,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session with id.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete removes and closes the session with id.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
	}
	return ok
}

// Len is the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Each calls fn for every open session in creation order.
func (s *SessionStore) Each(fn func(*Session)) {
	s.mu.RLock()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Created.Before(list[j].Created) })
	for _, sess := range list {
		fn(sess)
	}
}

// Close closes every session.
func (s *SessionStore) Close() {
	s.mu.Lock()
	list := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range list {
		sess.close()
	}
}
