package client

import (
	"context"
	"iter"
	"strings"

	"llm-chat-client/internal/llm"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ModelAdapter exposes an llm.Client as an ADK model.LLM so the same client
// can back an ADK agent. Each request is answered with one complete model turn
// built from the text of the latest user content.
type ModelAdapter struct {
	client llm.Client
}

// NewModelAdapter wraps client as an ADK model.
func NewModelAdapter(client llm.Client) *ModelAdapter {
	return &ModelAdapter{client: client}
}

// Name returns the wrapped client's name
func (m *ModelAdapter) Name() string {
	return m.client.Name()
}

// GenerateContent implements model.LLM. Streaming is not supported; the whole
// reply is yielded once either way.
func (m *ModelAdapter) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.client.Invoke(ctx, lastUserText(req))
		if err != nil {
			yield(nil, err)
			return
		}
		yield(&model.LLMResponse{
			Content:      genai.NewContentFromText(resp.Text, genai.RoleModel),
			TurnComplete: true,
		}, nil)
	}
}

func lastUserText(req *model.LLMRequest) string {
	if req == nil {
		return ""
	}
	for i := len(req.Contents) - 1; i >= 0; i-- {
		content := req.Contents[i]
		if content == nil || (content.Role != "" && content.Role != string(genai.RoleUser)) {
			continue
		}
		var texts []string
		for _, part := range content.Parts {
			if part != nil && part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n")
		}
	}
	return ""
}
