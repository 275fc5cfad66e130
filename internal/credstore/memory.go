package credstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process TokenStore. Err, when set, is returned from
// every operation.
type MemoryStore struct {
	mu       sync.Mutex
	token    string
	username string

	Err        error
	ClearCalls int
}

func (s *MemoryStore) Store(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.token = token
	return nil
}

func (s *MemoryStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.Err
}

func (s *MemoryStore) StoreUsername(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.username = username
	return nil
}

func (s *MemoryStore) GetUsername(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username, s.Err
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClearCalls++
	if s.Err != nil {
		return s.Err
	}
	s.token, s.username = "", ""
	return nil
}
