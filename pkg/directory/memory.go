package directory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Registry.
type MemoryStore struct {
	mu    sync.RWMutex
	users []User
}

// NewMemoryStore seeds a store with users. Entries without an id get one.
func NewMemoryStore(users ...User) *MemoryStore {
	s := &MemoryStore{}
	for _, u := range users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		s.users = append(s.users, u)
	}
	return s
}

// FindByUsername returns the users whose username matches, ignoring case.
func (s *MemoryStore) FindByUsername(ctx context.Context, username string) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []User
	for _, u := range s.users {
		if sameUsername(u.Username, username) {
			out = append(out, u)
		}
	}
	return out, nil
}

// Register stores user, assigning an id when missing.
func (s *MemoryStore) Register(ctx context.Context, user User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	user.Username = NormalizeUsername(user.Username)
	if user.Username == "" {
		return User{}, ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if sameUsername(u.Username, user.Username) {
			return User{}, ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	s.users = append(s.users, user)
	return user, nil
}

// Users returns a copy of every stored user in insertion order.
func (s *MemoryStore) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]User(nil), s.users...)
}
