package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/youi/backend/internal/auth"
	"github.com/youi/backend/internal/completion"
	"github.com/youi/backend/internal/config"
	"github.com/youi/backend/internal/db"
	"github.com/youi/backend/internal/handlers"
	"github.com/youi/backend/internal/middleware"
	"github.com/youi/backend/internal/repositories"
	"github.com/youi/backend/internal/storage"
	"github.com/youi/backend/internal/tools"
	"github.com/youi/backend/internal/upstream"
	"github.com/youi/backend/internal/youtube"
)

// backend is everything the tool surfaces (HTTP and MCP) share.
type backend struct {
	session    *auth.Session
	dispatcher *tools.Dispatcher
	videos     *youtube.Client
}

func upstreamPolicy(cfg config.Config) upstream.Policy {
	return upstream.Policy{
		Timeout:    cfg.Upstream.Timeout,
		MaxRetries: cfg.Upstream.MaxRetries,
		Backoff:    cfg.Upstream.Backoff,
	}
}

// openCredentialStore returns the configured store and a func releasing it.
func openCredentialStore(ctx context.Context, cfg config.Config) (auth.CredentialStore, func(), error) {
	noop := func() {}

	switch cfg.TokenStore.Kind {
	case config.TokenStoreFile, "":
		store, err := storage.NewFileCredentialStore(cfg.TokenStore.Path)
		return store, noop, err

	case config.TokenStoreSQLite:
		conn, err := repositories.OpenSQLite(cfg.TokenStore.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		store, err := repositories.NewSQLiteCredentialStore(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, noop, err
		}
		return store, func() { _ = conn.Close() }, nil

	case config.TokenStorePostgres:
		pool, err := db.Connect(ctx, cfg.TokenStore.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return repositories.NewPostgresCredentialStore(pool), pool.Close, nil

	case config.TokenStoreS3:
		store, err := storage.NewS3CredentialStore(ctx, cfg.TokenStore.ObjectStore)
		return store, noop, err

	default:
		return nil, noop, fmt.Errorf("unknown token store %q", cfg.TokenStore.Kind)
	}
}

// buildBackend wires the OAuth session, the platform and completion clients and
// the dispatcher on top of store.
func buildBackend(cfg config.Config, store auth.CredentialStore, httpClient *http.Client) (backend, error) {
	policy := upstreamPolicy(cfg)
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	completer, err := completion.New(cfg.Completion.Provider, completion.Config{
		APIKey:     cfg.Completion.APIKey,
		BaseURL:    cfg.Completion.BaseURL,
		Model:      cfg.Completion.Model,
		Policy:     policy,
		HTTPClient: httpClient,
	})
	if err != nil {
		return backend{}, err
	}

	oauthCfg := auth.NewOAuthConfig(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL)
	session := auth.NewSession(oauthCfg, store, auth.WithHTTPClient(httpClient), auth.WithTimeout(cfg.Upstream.Timeout))

	videos := youtube.NewClient(cfg.YouTubeBaseURL, httpClient, policy, youtube.WithInfoCache(cfg.VideoInfoCacheTTL))

	return backend{
		session: session,
		dispatcher: &tools.Dispatcher{
			Tokens:    session,
			Platform:  videos,
			Completer: completer,
		},
		videos: videos,
	}, nil
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(b backend, cfg config.Config) handlers.Dependencies {
	return handlers.Dependencies{
		Session: b.session,
		Tools:   b.dispatcher,
		Tokens:  b.session,
		Videos:  b.videos,
		Limiter: middleware.NewKeyedRateLimiter(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
			cfg.RateLimit.Burst,
			0,
		),
		APIKeyHash:    cfg.APIKeyHash,
		SecureCookies: isHTTPS(cfg.OAuth.RedirectURL),
	}
}

func isHTTPS(rawURL string) bool {
	return strings.HasPrefix(strings.ToLower(rawURL), "https://")
}
