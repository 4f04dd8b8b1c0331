package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Token store backends.
const (
	TokenStoreFile     = "file"
	TokenStoreSQLite   = "sqlite"
	TokenStorePostgres = "postgres"
	TokenStoreS3       = "s3"
)

// Completion providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config captures the runtime configuration for the YOUI backend and chat client.
type Config struct {
	AppPort       int
	AllowedOrigin string
	LogLevel      string
	MigrationDir  string

	OAuth      OAuthConfig
	Completion CompletionConfig
	Upstream   UpstreamConfig
	TokenStore TokenStoreConfig
	RateLimit  RateLimitConfig

	YouTubeBaseURL    string
	VideoInfoCacheTTL time.Duration

	// APIKeyHash is a bcrypt hash guarding POST /mcp. Empty disables the guard.
	APIKeyHash string

	Client ClientConfig
}

// OAuthConfig holds the identity-provider client registration.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// RefreshToken seeds the session when no credential has been persisted yet.
	RefreshToken string
}

// CompletionConfig selects and configures the chat-completion provider.
type CompletionConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// UpstreamConfig bounds every outbound call.
type UpstreamConfig struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// TokenStoreConfig selects where the OAuth credential is persisted.
type TokenStoreConfig struct {
	Kind        string
	Path        string
	SQLitePath  string
	DatabaseURL string
	ObjectStore ObjectStoreConfig
}

// ObjectStoreConfig points at an S3-compatible bucket.
type ObjectStoreConfig struct {
	Bucket   string
	Endpoint string
	Region   string
	Key      string
}

// RateLimitConfig bounds tool calls per client address.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// ClientConfig configures the terminal chat client.
type ClientConfig struct {
	BackendURL string
	APIKey     string
	StatePath  string
}

// Load reads configuration from environment variables, applying defaults suited to local development.
func Load() (Config, error) {
	provider := strings.ToLower(getString("YOUI_COMPLETION_PROVIDER", ProviderOpenAI))

	cfg := Config{
		AppPort:       getInt("PORT", 3000),
		AllowedOrigin: getString("ALLOWED_ORIGIN", ""),
		LogLevel:      strings.ToLower(getString("YOUI_LOG_LEVEL", "info")),
		MigrationDir:  getString("YOUI_MIGRATIONS", "migrations"),
		OAuth: OAuthConfig{
			ClientID:     getString("CLIENT_ID", ""),
			ClientSecret: getString("CLIENT_SECRET", ""),
			RedirectURL:  getString("REDIRECT_URI", "http://localhost:3000/auth/callback"),
			RefreshToken: getString("REFRESH_TOKEN", ""),
		},
		Completion: CompletionConfig{
			Provider: provider,
			BaseURL:  getString("YOUI_COMPLETION_BASE_URL", ""),
		},
		Upstream: UpstreamConfig{
			Timeout:    getDuration("YOUI_UPSTREAM_TIMEOUT", 15*time.Second),
			MaxRetries: getInt("YOUI_UPSTREAM_RETRIES", 1),
			Backoff:    getDuration("YOUI_UPSTREAM_BACKOFF", 250*time.Millisecond),
		},
		TokenStore: TokenStoreConfig{
			Kind:        strings.ToLower(getString("YOUI_TOKEN_STORE", TokenStoreFile)),
			Path:        getString("YOUI_TOKEN_FILE", "token.json"),
			SQLitePath:  getString("YOUI_TOKEN_DB", "youi.db"),
			DatabaseURL: getString("YOUI_DATABASE_URL", ""),
			ObjectStore: ObjectStoreConfig{
				Bucket:   getString("YOUI_S3_BUCKET", ""),
				Endpoint: getString("YOUI_S3_ENDPOINT", ""),
				Region:   getString("YOUI_S3_REGION", "us-east-1"),
				Key:      getString("YOUI_S3_KEY", "youi/token.json"),
			},
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("YOUI_RATE_LIMIT_REQUESTS", 30),
			Window:   getDuration("YOUI_RATE_LIMIT_WINDOW", time.Minute),
			Burst:    getInt("YOUI_RATE_LIMIT_BURST", 10),
		},
		YouTubeBaseURL:    getString("YOUI_YOUTUBE_API_BASE", "https://www.googleapis.com/youtube/v3"),
		VideoInfoCacheTTL: getDuration("YOUI_VIDEO_INFO_CACHE_TTL", 10*time.Minute),
		APIKeyHash:        getString("YOUI_API_KEY_HASH", ""),
		Client: ClientConfig{
			BackendURL: getString("YOUI_BACKEND_URL", "http://localhost:3000"),
			APIKey:     getString("YOUI_API_KEY", ""),
			StatePath:  getString("YOUI_STATE_DB", "youi_state.db"),
		},
	}

	switch provider {
	case ProviderOpenAI:
		cfg.Completion.APIKey = getString("OPENAI_API_KEY", "")
		cfg.Completion.Model = getString("YOUI_COMPLETION_MODEL", "gpt-4o-mini")
	case ProviderAnthropic:
		cfg.Completion.APIKey = getString("ANTHROPIC_API_KEY", "")
		cfg.Completion.Model = getString("YOUI_COMPLETION_MODEL", "claude-haiku-4-5")
	default:
		return Config{}, fmt.Errorf("unknown completion provider %q", provider)
	}

	switch cfg.TokenStore.Kind {
	case TokenStoreFile, TokenStoreSQLite:
	case TokenStorePostgres:
		if cfg.TokenStore.DatabaseURL == "" {
			return Config{}, fmt.Errorf("token store %q requires YOUI_DATABASE_URL", cfg.TokenStore.Kind)
		}
	case TokenStoreS3:
		if cfg.TokenStore.ObjectStore.Bucket == "" {
			return Config{}, fmt.Errorf("token store %q requires YOUI_S3_BUCKET", cfg.TokenStore.Kind)
		}
	default:
		return Config{}, fmt.Errorf("unknown token store %q", cfg.TokenStore.Kind)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	if cfg.Upstream.MaxRetries < 0 {
		cfg.Upstream.MaxRetries = 0
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
