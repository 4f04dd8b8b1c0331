package completion

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/youi/backend/internal/logging"
	"github.com/youi/backend/internal/upstream"
)

const (
	anthropicService      = "anthropic"
	defaultAnthropicModel = "claude-haiku-4-5"
	anthropicMaxTokens    = 1024
)

// Anthropic completes prompts with the Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
	policy upstream.Policy
}

// NewAnthropic builds an Anthropic completer.
func NewAnthropic(cfg Config) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  model,
		policy: cfg.Policy,
	}
}

// Complete sends prompt as a single user turn and joins the text blocks of the reply.
func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := logging.StartSpan(ctx, "anthropic.complete", "model", a.model)

	answer, err := upstream.Retry(ctx, a.policy, func(ctx context.Context) (string, error) {
		msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: anthropicMaxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", err
		}

		var b strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if b.Len() == 0 {
			return "", emptyAnswer(anthropicService)
		}
		return b.String(), nil
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			err = wrapError(anthropicService, apiErr.StatusCode, apiErr.RawJSON(), err)
		} else {
			err = wrapError(anthropicService, 0, "", err)
		}
		span.EndErr(err)
		return "", err
	}

	span.End()
	return answer, nil
}

var _ Completer = (*Anthropic)(nil)
