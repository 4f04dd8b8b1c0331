// Package completion sends single-turn prompts to a hosted chat-completion
// model and returns the first answer as plain text.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/youi/backend/internal/upstream"
)

// Providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Completer turns a prompt into the model's reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config configures a provider client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Policy     upstream.Policy
	HTTPClient *http.Client
}

// New returns the Completer for provider.
func New(provider string, cfg Config) (Completer, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", provider)
	}
}

// wrapError maps an SDK failure onto *upstream.Error.
func wrapError(service string, statusCode int, raw string, err error) error {
	if err == nil {
		return nil
	}
	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		return err
	}
	if statusCode == 0 {
		return &upstream.Error{Service: service, Op: "complete", Err: err}
	}
	msg := upstream.ProviderMessage([]byte(raw))
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &upstream.Error{Service: service, Op: "complete", StatusCode: statusCode, Message: msg, Err: err}
}

func emptyAnswer(service string) error {
	return &upstream.Error{Service: service, Op: "complete", Message: "model returned no answer"}
}
