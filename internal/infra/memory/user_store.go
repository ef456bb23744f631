package memory

import (
	"context"
	"sync"

	"quiz-hosting-service/internal/domain"
)

// UserStore keeps accounts in process, unique by username.
type UserStore struct {
	mu         sync.RWMutex
	byID       map[string]domain.User
	byUsername map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[string]domain.User),
		byUsername: make(map[string]string),
	}
}

func (s *UserStore) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[user.Username]; ok {
		return domain.ErrUserExists
	}
	s.byID[user.ID] = user
	s.byUsername[user.Username] = user.ID
	return nil
}

func (s *UserStore) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *UserStore) GetUsers(_ context.Context, ids []string) (map[string]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.byID[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}
