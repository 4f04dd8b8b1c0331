package auth

import (
	"context"
	"errors"

	"github.com/youi/backend/internal/models"
)

var (
	// ErrNoCredential indicates nothing has been persisted yet.
	ErrNoCredential = errors.New("no credential stored")
	// ErrNotAuthenticated indicates the session holds no usable access token.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// CredentialStore persists the single OAuth credential so it survives restarts.
// Save overwrites whatever was stored before.
type CredentialStore interface {
	Load(ctx context.Context) (models.Credential, error)
	Save(ctx context.Context, credential models.Credential) error
}
