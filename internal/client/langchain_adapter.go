package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"llm-chat-client/internal/config"
	"llm-chat-client/internal/domain"
	"llm-chat-client/internal/types"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainAdapter implements llm.Client using LangChainGo's OpenAI model.
// LangChainGo does not retry, so MaxRetries is ignored here.
type LangChainAdapter struct {
	base
	llm *openai.LLM
}

// NewLangChainAdapter creates a LangChainGo-backed adapter. A configuration
// that fails validation still yields an adapter; its calls then fail with the
// validation error before reaching the network.
func NewLangChainAdapter(cfg config.LLMConfig, opts ...Option) (*LangChainAdapter, error) {
	a := &LangChainAdapter{base: newBase(config.BackendLangChain, cfg, opts)}
	if a.cfg.Validate() != nil {
		return a, nil
	}

	lcLLM, err := openai.New(
		openai.WithModel(a.cfg.Model),
		openai.WithBaseURL(a.cfg.Endpoint),
		openai.WithToken(a.cfg.APIKey),
		openai.WithHTTPClient(a.httpClient),
	)
	if err != nil {
		return nil, &types.ConfigurationError{Field: "llm", Message: "create langchain llm", Err: err}
	}
	a.llm = lcLLM
	return a, nil
}

// Invoke sends the prompt as a single human message.
func (a *LangChainAdapter) Invoke(ctx context.Context, prompt string) (resp *domain.Response, err error) {
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

	result, err := a.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("langchain request: %w", err), ex)
	}

	if len(result.Choices) == 0 || result.Choices[0].Content == "" {
		return nil, emptyResponse(ex)
	}
	return responseFromRaw(result.Choices[0].Content, rawBody(ex)), nil
}

// Ping sends a minimal request to verify connection
func (a *LangChainAdapter) Ping(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	slog.Info("checking llm connection...", "backend", a.backend, "endpoint", a.cfg.Endpoint)

	ctx, ex, release, err := a.begin(ctx)
	defer release()
	if err != nil {
		return err
	}

	if _, err := llms.GenerateFromSinglePrompt(ctx, a.llm, "hello", llms.WithMaxTokens(1)); err != nil {
		return classify(ctx, fmt.Errorf("llm ping: %w", err), ex)
	}
	slog.Info("llm connection verified")
	return nil
}
