package llm

import (
	"context"

	"llm-chat-client/internal/domain"
)

// Client defines the interface for sending a single prompt to a chat-completion provider.
// Implementations are safe for concurrent use.
type Client interface {
	// Name identifies the backend and model, e.g. "openai-gpt-4o".
	Name() string
	// Invoke sends one prompt and returns the model's reply.
	// Errors are always a *types.ConfigurationError, *types.TransportError or *types.ProviderError.
	Invoke(ctx context.Context, prompt string) (*domain.Response, error)
}

// Pinger is implemented by clients that can verify connectivity cheaply.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Modeler is implemented by clients that know their configured model name.
type Modeler interface {
	Model() string
}

// ModelOf returns the configured model of c, or "" when c does not report one.
func ModelOf(c Client) string {
	if m, ok := c.(Modeler); ok {
		return m.Model()
	}
	return ""
}
