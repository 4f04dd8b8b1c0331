package completion

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/youi/backend/internal/logging"
	"github.com/youi/backend/internal/upstream"
)

const (
	openAIService      = "openai"
	defaultOpenAIModel = "gpt-4o-mini"
)

// OpenAI completes prompts with the Chat Completions API.
type OpenAI struct {
	client openai.Client
	model  string
	policy upstream.Policy
}

// NewOpenAI builds an OpenAI completer. SDK level retries are disabled so the
// upstream policy alone decides what is retried.
func NewOpenAI(cfg Config) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	} else {
		opts = append(opts, option.WithBaseURL("https://api.openai.com/v1"))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		policy: cfg.Policy,
	}
}

// Complete sends prompt as a single user message and returns the first choice.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := logging.StartSpan(ctx, "openai.complete", "model", o.model)

	answer, err := upstream.Retry(ctx, o.policy, func(ctx context.Context) (string, error) {
		resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: openai.ChatModel(o.model),
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", emptyAnswer(openAIService)
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			err = wrapError(openAIService, apiErr.StatusCode, apiErr.RawJSON(), err)
		} else {
			err = wrapError(openAIService, 0, "", err)
		}
		span.EndErr(err)
		return "", err
	}

	span.End()
	return answer, nil
}

var _ Completer = (*OpenAI)(nil)
