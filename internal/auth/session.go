package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/youi/backend/internal/logging"
	"github.com/youi/backend/internal/models"
)

// Scopes requested on the consent screen.
var Scopes = []string{
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/youtube.force-ssl",
}

// NewOAuthConfig builds the Google OAuth2 client registration used by the session.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       Scopes,
	}
}

// Session owns the OAuth credential for the signed-in platform account. It is
// created once at startup and handed to every component that needs a token.
type Session struct {
	oauth      *oauth2.Config
	store      CredentialStore
	httpClient *http.Client
	timeout    time.Duration

	// mu guards token only. Calls to the token endpoint run without it.
	mu    sync.Mutex
	token *oauth2.Token
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithHTTPClient sets the client used for code exchange and token refresh.
func WithHTTPClient(client *http.Client) SessionOption {
	return func(s *Session) {
		s.httpClient = client
	}
}

// WithTimeout bounds each call to the token endpoint. Zero means the caller's
// context is the only limit.
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.timeout = d
	}
}

// NewSession constructs a logged-out session persisting credentials to store.
func NewSession(cfg *oauth2.Config, store CredentialStore, opts ...SessionOption) *Session {
	if cfg == nil {
		panic("auth: oauth config must not be nil")
	}
	if store == nil {
		panic("auth: credential store must not be nil")
	}
	s := &Session{oauth: cfg, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginURL returns the consent URL. Offline access and forced consent make the
// provider return a refresh token every time.
func (s *Session) LoginURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Complete exchanges an authorization code and persists the resulting
// credential, replacing any previous one.
func (s *Session) Complete(ctx context.Context, code string) error {
	if code == "" {
		return errors.New("authorization code must be provided")
	}

	exchangeCtx, cancel := s.endpointContext(ctx)
	defer cancel()
	tok, err := s.oauth.Exchange(exchangeCtx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	s.install(tok)

	if err := s.store.Save(ctx, credentialFromToken(tok)); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// Restore loads the persisted credential at startup. When a refresh token is
// available (persisted, or fallbackRefreshToken) it is exchanged eagerly for a
// fresh access token. A failed refresh falls back to any stored access token.
func (s *Session) Restore(ctx context.Context, fallbackRefreshToken string) error {
	logger := logging.FromContext(ctx)

	cred, err := s.store.Load(ctx)
	if err != nil && !errors.Is(err, ErrNoCredential) {
		return fmt.Errorf("load credential: %w", err)
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = fallbackRefreshToken
	}
	if cred.Empty() {
		logger.Info("no stored credential, waiting for login")
		return nil
	}

	if cred.RefreshToken != "" {
		fresh, err := s.refresh(ctx, cred.RefreshToken)
		if err == nil {
			s.install(fresh)
			if err := s.store.Save(ctx, credentialFromToken(fresh)); err != nil {
				logger.Warn("persist refreshed credential", "error", err)
			}
			logger.Info("access token refreshed on startup")
			return nil
		}
		logger.Warn("eager token refresh failed", "error", err)
	}

	if cred.AccessToken != "" {
		s.install(tokenFromCredential(cred))
		logger.Info("stored access token loaded")
	}
	return nil
}

// LoggedIn reports whether the session holds a token. It never waits on a
// refresh in flight.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != nil
}

// AccessToken returns a valid access token, refreshing it when it has expired.
// The refresh honours ctx and the session timeout. A rotated token is written
// back to the credential store.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	current := s.token
	s.mu.Unlock()

	if current == nil {
		return "", ErrNotAuthenticated
	}
	if current.Valid() {
		return current.AccessToken, nil
	}
	if current.RefreshToken == "" {
		return "", fmt.Errorf("%w: access token expired and no refresh token is stored", ErrNotAuthenticated)
	}

	fresh, err := s.refresh(ctx, current.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: refresh access token: %v", ErrNotAuthenticated, err)
	}

	s.mu.Lock()
	// A concurrent login replaced the credential while this refresh was out.
	if s.token != current {
		s.mu.Unlock()
		return fresh.AccessToken, nil
	}
	s.token = fresh
	s.mu.Unlock()

	if err := s.store.Save(ctx, credentialFromToken(fresh)); err != nil {
		logging.FromContext(ctx).Warn("persist rotated credential", "error", err)
	}
	return fresh.AccessToken, nil
}

// refresh exchanges refreshToken at the token endpoint. The provider may omit
// the refresh token from its answer, in which case the old one is kept.
func (s *Session) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	refreshCtx, cancel := s.endpointContext(ctx)
	defer cancel()

	fresh, err := s.oauth.TokenSource(refreshCtx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, err
	}
	if fresh.AccessToken == "" {
		return nil, errors.New("token endpoint returned no access token")
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = refreshToken
	}
	return fresh, nil
}

func (s *Session) install(tok *oauth2.Token) {
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
}

// endpointContext derives the context for one token endpoint round trip.
func (s *Session) endpointContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// NewState returns a random value for the OAuth state parameter.
func NewState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func credentialFromToken(tok *oauth2.Token) models.Credential {
	cred := models.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		cred.Expiry = &expiry
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		cred.Scope = scope
	}
	return cred
}

func tokenFromCredential(cred models.Credential) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
	}
	if cred.Expiry != nil {
		tok.Expiry = cred.Expiry.In(time.UTC)
	}
	return tok
}
