package auth

import (
	"context"
	"sync"

	"github.com/youi/backend/internal/models"
)

// NewInMemoryCredentialStore returns a CredentialStore backed by process memory.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{}
}

// InMemoryCredentialStore implements CredentialStore for tests and ephemeral runs.
type InMemoryCredentialStore struct {
	mu    sync.RWMutex
	cred  models.Credential
	saved bool
	saves int
}

// Load returns the stored credential or ErrNoCredential.
func (s *InMemoryCredentialStore) Load(_ context.Context) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return models.Credential{}, ErrNoCredential
	}
	return s.cred, nil
}

// Save replaces the stored credential.
func (s *InMemoryCredentialStore) Save(_ context.Context, credential models.Credential) error {
	s.mu.Lock()
	s.cred = credential
	s.saved = true
	s.saves++
	s.mu.Unlock()
	return nil
}

// Saves reports how many times Save was called. Useful for tests.
func (s *InMemoryCredentialStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
