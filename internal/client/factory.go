package client

import (
	"llm-chat-client/internal/config"
	"llm-chat-client/internal/llm"
	"llm-chat-client/internal/types"
)

// NewLLM creates a chat client for the configured backend.
// The returned client is safe for concurrent use from multiple goroutines.
func NewLLM(cfg config.LLMConfig, opts ...Option) (llm.Client, error) {
	switch cfg.Backend {
	case "", config.BackendOpenAI:
		return NewOpenAIAdapter(cfg, opts...), nil
	case config.BackendLangChain:
		return NewLangChainAdapter(cfg, opts...)
	default:
		return nil, types.NewConfigurationError("llm.backend", "unknown backend "+cfg.Backend)
	}
}
