package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/youi/backend/internal/auth"
	"github.com/youi/backend/internal/models"
)

const sqliteCredentialSchema = `
CREATE TABLE IF NOT EXISTS credentials (
    id            INTEGER PRIMARY KEY CHECK (id = 1),
    access_token  TEXT NOT NULL DEFAULT '',
    refresh_token TEXT NOT NULL DEFAULT '',
    token_type    TEXT NOT NULL DEFAULT '',
    expiry        TEXT,
    scope         TEXT NOT NULL DEFAULT '',
    updated_at    TEXT NOT NULL
);`

// OpenSQLite opens (creating if needed) a SQLite database file with the pragmas
// used across the app.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// SQLiteCredentialStore persists the OAuth credential in a single-row SQLite table.
type SQLiteCredentialStore struct {
	db *sql.DB
}

// NewSQLiteCredentialStore ensures the schema exists and returns the store.
func NewSQLiteCredentialStore(ctx context.Context, conn *sql.DB) (*SQLiteCredentialStore, error) {
	if _, err := conn.ExecContext(ctx, sqliteCredentialSchema); err != nil {
		return nil, fmt.Errorf("ensure credentials table: %w", err)
	}
	return &SQLiteCredentialStore{db: conn}, nil
}

// Save replaces the stored credential.
func (s *SQLiteCredentialStore) Save(ctx context.Context, cred models.Credential) error {
	var expiry sql.NullString
	if cred.Expiry != nil {
		expiry = sql.NullString{Valid: true, String: cred.Expiry.UTC().Format(time.RFC3339Nano)}
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO credentials (id, access_token, refresh_token, token_type, expiry, scope, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            access_token = excluded.access_token,
            refresh_token = excluded.refresh_token,
            token_type = excluded.token_type,
            expiry = excluded.expiry,
            scope = excluded.scope,
            updated_at = excluded.updated_at
    `, credentialRowID, cred.AccessToken, cred.RefreshToken, cred.TokenType, expiry, cred.Scope,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

// Load returns the stored credential or auth.ErrNoCredential.
func (s *SQLiteCredentialStore) Load(ctx context.Context) (models.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT access_token, refresh_token, token_type, expiry, scope
        FROM credentials
        WHERE id = ?
    `, credentialRowID)

	var (
		cred   models.Credential
		expiry sql.NullString
	)
	if err := row.Scan(&cred.AccessToken, &cred.RefreshToken, &cred.TokenType, &expiry, &cred.Scope); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Credential{}, auth.ErrNoCredential
		}
		return models.Credential{}, fmt.Errorf("select credential: %w", err)
	}

	if expiry.Valid && expiry.String != "" {
		t, err := time.Parse(time.RFC3339Nano, expiry.String)
		if err != nil {
			return models.Credential{}, fmt.Errorf("parse credential expiry: %w", err)
		}
		cred.Expiry = &t
	}
	return cred, nil
}

var _ auth.CredentialStore = (*SQLiteCredentialStore)(nil)
