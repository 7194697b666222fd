package domain

import (
	"encoding/json"
	"strings"
)

// DefaultPrompt is the prompt the CLI sends when none is given.
const DefaultPrompt = "What is Hello World?"

// Prompt is the user's input text for a single completion call.
type Prompt string

// IsEmpty reports whether the prompt has no non-whitespace content.
func (p Prompt) IsEmpty() bool {
	return strings.TrimSpace(string(p)) == ""
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Response represents the core result of a completion call.
// It is created once per successful call and never modified afterwards.
type Response struct {
	Text         string          `json:"text"`
	Model        string          `json:"model,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
	Usage        Usage           `json:"usage"`
	Raw          json.RawMessage `json:"-"` // Provider payload, verbatim
}
