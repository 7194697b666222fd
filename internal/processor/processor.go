package processor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"llm-chat-client/internal/domain"
	"llm-chat-client/internal/llm"
	"llm-chat-client/internal/metrics"
	"llm-chat-client/internal/storage"
	"llm-chat-client/internal/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchLimit bounds InvokeAll when the caller passes no limit.
	DefaultBatchLimit = 8
	// DefaultSaveTimeout bounds a single history write.
	DefaultSaveTimeout = 5 * time.Second
)

// Result is the outcome of one prompt in a batch
type Result struct {
	Prompt   string
	Response *domain.Response
	Err      error
}

// Processor sends prompts through a chat client and records the exchanges
type Processor struct {
	client      llm.Client
	storage     storage.Repository
	saveTimeout time.Duration
}

// Option configures a Processor
type Option func(*Processor)

// WithSaveTimeout bounds each history write
func WithSaveTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.saveTimeout = d
		}
	}
}

// New creates a processor. repo may be nil, in which case history is not kept.
func New(client llm.Client, repo storage.Repository, opts ...Option) *Processor {
	p := &Processor{
		client:      client,
		storage:     repo,
		saveTimeout: DefaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process invokes the client once and persists the exchange.
// History failures are logged and never replace the invoke result.
func (p *Processor) Process(ctx context.Context, prompt string) (*domain.Response, error) {
	start := time.Now()
	resp, err := p.client.Invoke(ctx, prompt)
	p.record(ctx, prompt, resp, err, time.Since(start))
	return resp, err
}

// InvokeAll runs prompts concurrently with at most limit in flight.
// Results are returned in prompt order; one failure does not cancel the others.
func (p *Processor) InvokeAll(ctx context.Context, prompts []string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	results := make([]Result, len(prompts))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, prompt := range prompts {
		g.Go(func() error {
			resp, err := p.Process(gCtx, prompt)
			results[i] = Result{Prompt: prompt, Response: resp, Err: err}
			// Best effort: keep the group running
			return nil
		})
	}

	g.Wait()
	return results
}

func (p *Processor) record(ctx context.Context, prompt string, resp *domain.Response, invokeErr error, elapsed time.Duration) {
	if p.storage == nil {
		return
	}

	// Configuration errors never reached the provider
	var cfgErr *types.ConfigurationError
	if errors.As(invokeErr, &cfgErr) {
		return
	}

	record := &storage.ExchangeRecord{
		ID:         uuid.NewString(),
		Backend:    p.client.Name(),
		Prompt:     prompt,
		Status:     storage.StatusSuccess,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if resp != nil {
		record.Model = resp.Model
		record.Text = resp.Text
		record.Raw = resp.Raw
	}
	if record.Model == "" {
		// Failed calls carry no response; fall back to the configured model
		record.Model = llm.ModelOf(p.client)
	}
	if invokeErr != nil {
		record.Status = storage.StatusError
		record.ErrorKind = types.Kind(invokeErr)
		record.ErrorMessage = invokeErr.Error()
	}

	// The call context may already be canceled or expired
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.saveTimeout)
	defer cancel()

	if err := p.storage.SaveExchange(saveCtx, record); err != nil {
		slog.Error("save exchange failed", "error", err)
		metrics.HistoryWriteFailures.Inc()
		return
	}
	slog.Debug("exchange saved", "id", record.ID)
}
