package auth

import (
	"context"
	"sync"

	"credencia/pkg/sentinel"
)

type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]AdminUser
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]AdminUser)}
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) Upsert(_ context.Context, user *AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Username] = *user
	return nil
}
