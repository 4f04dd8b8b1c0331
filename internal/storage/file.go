// Package storage holds the credential stores that persist outside a database:
// a JSON file on local disk and a JSON object in an S3-compatible bucket.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/youi/backend/internal/auth"
	"github.com/youi/backend/internal/models"
)

// FileCredentialStore keeps the credential as a JSON document on local disk.
type FileCredentialStore struct {
	path string
	mu   sync.Mutex
}

// NewFileCredentialStore returns a store reading and writing path.
func NewFileCredentialStore(path string) (*FileCredentialStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("file store: path is required")
	}
	return &FileCredentialStore{path: path}, nil
}

// Load reads the credential file. A missing file yields auth.ErrNoCredential.
func (s *FileCredentialStore) Load(_ context.Context) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Credential{}, auth.ErrNoCredential
		}
		return models.Credential{}, fmt.Errorf("read credential file: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return models.Credential{}, fmt.Errorf("decode credential file %s: %w", s.path, err)
	}
	return cred, nil
}

// Save overwrites the credential file. The document is written to a temporary
// file in the same directory and renamed into place.
func (s *FileCredentialStore) Save(_ context.Context, credential models.Credential) error {
	data, err := json.MarshalIndent(credential, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp credential file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp credential file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}

var _ auth.CredentialStore = (*FileCredentialStore)(nil)
