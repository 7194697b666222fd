package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"llm-chat-client/internal/config"
	"llm-chat-client/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdapter implements llm.Client using the OpenAI official client
type OpenAIAdapter struct {
	base
	client openai.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter.
// IMPORTANT: The returned adapter is safe for concurrent use from multiple goroutines;
// its configuration is copied and never modified after creation.
func NewOpenAIAdapter(cfg config.LLMConfig, opts ...Option) *OpenAIAdapter {
	b := newBase(config.BackendOpenAI, cfg, opts)
	client := openai.NewClient(
		option.WithAPIKey(b.cfg.APIKey),
		option.WithBaseURL(b.cfg.Endpoint),
		option.WithHTTPClient(b.httpClient),
		option.WithMaxRetries(b.cfg.MaxRetries),
	)
	return &OpenAIAdapter{base: b, client: client}
}

// Invoke sends a single user message and returns the first choice's text.
func (a *OpenAIAdapter) Invoke(ctx context.Context, prompt string) (resp *domain.Response, err error) {
	start := time.Now()
	defer func() { a.observe(start, err) }()

	if err := a.preflight(prompt); err != nil {
		return nil, err
	}

	ctx, ex, release, err := a.begin(ctx)
	defer release()
	if err != nil {
		return nil, err
	}

	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("openai request: %w", err), ex)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, emptyResponse(ex)
	}

	raw := rawBody(ex)
	if raw == nil {
		raw = []byte(completion.RawJSON())
	}
	choice := completion.Choices[0]
	return &domain.Response{
		Text:         choice.Message.Content,
		Model:        completion.Model,
		FinishReason: string(choice.FinishReason),
		Usage: domain.Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
		Raw: raw,
	}, nil
}

// Ping sends a minimal request to verify connection
func (a *OpenAIAdapter) Ping(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	slog.Info("checking llm connection...", "backend", a.backend, "endpoint", a.cfg.Endpoint)

	ctx, ex, release, err := a.begin(ctx)
	defer release()
	if err != nil {
		return err
	}

	_, err = a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("hello"),
		},
		MaxTokens: openai.Int(1),
	})
	if err != nil {
		return classify(ctx, fmt.Errorf("llm ping: %w", err), ex)
	}
	slog.Info("llm connection verified")
	return nil
}
