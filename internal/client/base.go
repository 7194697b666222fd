package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"llm-chat-client/internal/config"
	"llm-chat-client/internal/domain"
	"llm-chat-client/internal/metrics"
	"llm-chat-client/internal/types"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/semaphore"
)

// Option customizes an adapter.
type Option func(*options)

type options struct {
	transport http.RoundTripper
}

// WithTransport sets the base transport under the recording transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// base holds what every backend shares: immutable configuration, the
// optional concurrency limit and the HTTP client.
type base struct {
	cfg        config.LLMConfig
	backend    string
	sem        *semaphore.Weighted
	httpClient *http.Client
}

func newBase(backend string, cfg config.LLMConfig, opts []Option) base {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cfg.Backend = backend
	if cfg.Endpoint == "" {
		cfg.Endpoint = config.DefaultEndpoint
	}

	var sem *semaphore.Weighted
	if cfg.MaxConcurrency > 0 {
		sem = semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	}

	return base{
		cfg:        cfg,
		backend:    backend,
		sem:        sem,
		httpClient: newHTTPClient(o.transport, cfg.APIKey, cfg.AuthHeader),
	}
}

// Name returns the backend and model name
func (b *base) Name() string {
	return b.backend + "-" + b.cfg.Model
}

// Model returns the configured model
func (b *base) Model() string {
	return b.cfg.Model
}

// preflight rejects calls that must not reach the network.
func (b *base) preflight(prompt string) error {
	if err := b.cfg.Validate(); err != nil {
		return err
	}
	if domain.Prompt(prompt).IsEmpty() {
		return types.NewConfigurationError("prompt", "must not be empty")
	}
	return nil
}

// begin applies the configured timeout, takes a concurrency slot and attaches
// a fresh exchange. The returned release func must always be called.
func (b *base) begin(ctx context.Context) (context.Context, *exchange, func(), error) {
	cancel := context.CancelFunc(func() {})
	if b.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
	}

	if b.sem != nil {
		if err := b.sem.Acquire(ctx, 1); err != nil {
			err = classify(ctx, err, nil)
			cancel()
			return nil, nil, func() {}, err
		}
		release := cancel
		cancel = func() {
			b.sem.Release(1)
			release()
		}
	}

	ctx, ex := withExchange(ctx)
	return ctx, ex, cancel, nil
}

// observe records metrics and a debug line for a finished call.
func (b *base) observe(start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := "success"
	if err != nil {
		outcome = types.Kind(err)
	}
	metrics.Invocations.WithLabelValues(b.backend, outcome).Inc()
	metrics.InvocationDuration.WithLabelValues(b.backend).Observe(elapsed.Seconds())

	if err != nil {
		slog.Debug("invoke failed", "backend", b.backend, "model", b.cfg.Model,
			"kind", outcome, "duration_ms", elapsed.Milliseconds(), "error", err)
		return
	}
	slog.Debug("invoke completed", "backend", b.backend, "model", b.cfg.Model,
		"duration_ms", elapsed.Milliseconds())
}

// emptyResponse reports a 2xx reply that carried no text. An error payload in
// the body takes precedence.
func emptyResponse(ex *exchange) error {
	status, body, _ := ex.last()
	if providerErr := parseProviderError(status, body); providerErr != nil {
		return providerErr
	}
	return &types.ProviderError{
		StatusCode: status,
		Code:       types.CodeEmptyResponse,
		Message:    "provider returned no text",
	}
}

// rawBody returns a private copy of the recorded body.
func rawBody(ex *exchange) []byte {
	_, body, ok := ex.last()
	if !ok || len(body) == 0 {
		return nil
	}
	return append([]byte(nil), body...)
}

// responseFromRaw fills what a backend's typed result lacks from the raw body.
func responseFromRaw(text string, raw []byte) *domain.Response {
	return &domain.Response{
		Text:         text,
		Model:        gjson.GetBytes(raw, "model").String(),
		FinishReason: gjson.GetBytes(raw, "choices.0.finish_reason").String(),
		Usage: domain.Usage{
			PromptTokens:     gjson.GetBytes(raw, "usage.prompt_tokens").Int(),
			CompletionTokens: gjson.GetBytes(raw, "usage.completion_tokens").Int(),
			TotalTokens:      gjson.GetBytes(raw, "usage.total_tokens").Int(),
		},
		Raw: raw,
	}
}
