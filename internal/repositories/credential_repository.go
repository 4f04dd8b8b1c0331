package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/youi/backend/internal/auth"
	"github.com/youi/backend/internal/db"
	"github.com/youi/backend/internal/models"
)

// credentialRowID keys the single credential row.
const credentialRowID = 1

// PostgresCredentialStore persists the OAuth credential to PostgreSQL.
type PostgresCredentialStore struct {
	pool db.Pool
}

// NewPostgresCredentialStore constructs a credential store backed by PostgreSQL.
func NewPostgresCredentialStore(pool db.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{pool: pool}
}

// Save replaces the stored credential.
func (s *PostgresCredentialStore) Save(ctx context.Context, cred models.Credential) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var expiry *time.Time
	if cred.Expiry != nil {
		utc := cred.Expiry.UTC()
		expiry = &utc
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO credentials (id, access_token, refresh_token, token_type, expiry, scope, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (id)
        DO UPDATE SET access_token = EXCLUDED.access_token,
                      refresh_token = EXCLUDED.refresh_token,
                      token_type = EXCLUDED.token_type,
                      expiry = EXCLUDED.expiry,
                      scope = EXCLUDED.scope,
                      updated_at = EXCLUDED.updated_at
    `, credentialRowID, cred.AccessToken, cred.RefreshToken, cred.TokenType, expiry, cred.Scope)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}

	return nil
}

// Load returns the stored credential or auth.ErrNoCredential.
func (s *PostgresCredentialStore) Load(ctx context.Context) (models.Credential, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return models.Credential{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT access_token, refresh_token, token_type, expiry, scope
        FROM credentials
        WHERE id = $1
    `, credentialRowID)

	var (
		cred   models.Credential
		expiry *time.Time
	)
	if err := row.Scan(&cred.AccessToken, &cred.RefreshToken, &cred.TokenType, &expiry, &cred.Scope); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Credential{}, auth.ErrNoCredential
		}
		return models.Credential{}, fmt.Errorf("select credential: %w", err)
	}

	if expiry != nil {
		utc := expiry.UTC()
		cred.Expiry = &utc
	}
	return cred, nil
}

var _ auth.CredentialStore = (*PostgresCredentialStore)(nil)
