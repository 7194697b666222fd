package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"llm-chat-client/internal/domain"
	"llm-chat-client/internal/llm"
	"llm-chat-client/internal/types"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	agentAppName = "llm-chat-client"
	agentUserID  = "cli-user"
)

// AgentClient answers each prompt with a single ADK agent turn whose model is
// the wrapped client. Errors raised by the wrapped client keep their kind.
type AgentClient struct {
	inner          llm.Client
	sessionService session.Service
}

// NewAgentClient wraps inner behind an ADK agent.
func NewAgentClient(inner llm.Client) *AgentClient {
	return &AgentClient{inner: inner, sessionService: session.InMemoryService()}
}

// Name returns the wrapped client's name prefixed with adk
func (a *AgentClient) Name() string {
	return "adk-" + a.inner.Name()
}

// Model reports the wrapped client's configured model, if it has one
func (a *AgentClient) Model() string {
	return llm.ModelOf(a.inner)
}

// Invoke runs one agent turn in a throwaway session.
func (a *AgentClient) Invoke(ctx context.Context, prompt string) (*domain.Response, error) {
	rec := &lastCall{Client: a.inner}

	chatAgent, err := llmagent.New(llmagent.Config{
		Name:        "chat_agent",
		Description: "Answers a single prompt",
		Model:       NewModelAdapter(rec),
	})
	if err != nil {
		return nil, &types.ConfigurationError{Field: "agent", Message: "create agent", Err: err}
	}

	r, err := runner.New(runner.Config{
		AppName:        agentAppName,
		Agent:          chatAgent,
		SessionService: a.sessionService,
	})
	if err != nil {
		return nil, &types.ConfigurationError{Field: "runner", Message: "create runner", Err: err}
	}

	sessionID := uuid.NewString()
	if _, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   agentAppName,
		UserID:    agentUserID,
		SessionID: sessionID,
	}); err != nil {
		return nil, &types.ConfigurationError{Field: "session", Message: "create session", Err: err}
	}
	defer a.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
		AppName:   agentAppName,
		UserID:    agentUserID,
		SessionID: sessionID,
	})

	msg := &genai.Content{Parts: []*genai.Part{{Text: prompt}}, Role: string(genai.RoleUser)}

	var sb strings.Builder
	for event, err := range r.Run(ctx, agentUserID, sessionID, msg, agent.RunConfig{}) {
		if err != nil {
			// Prefer the typed error the client produced over the runner's wrapping
			if callErr := rec.err(); callErr != nil {
				return nil, callErr
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, &types.TransportError{Code: types.CodeTimeout, Message: "agent turn timed out", Err: err}
			}
			if errors.Is(err, context.Canceled) {
				return nil, &types.TransportError{Code: types.CodeCanceled, Message: "agent turn canceled", Err: err}
			}
			return nil, &types.ProviderError{Code: types.CodeInvalidResponse, Message: "agent run: " + err.Error()}
		}
		if event == nil || !event.IsFinalResponse() || event.LLMResponse.Content == nil {
			continue
		}
		for _, part := range event.LLMResponse.Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	if callErr := rec.err(); callErr != nil {
		return nil, callErr
	}
	resp := rec.response()
	if resp == nil {
		return nil, &types.ProviderError{Code: types.CodeEmptyResponse, Message: "agent produced no model turn"}
	}
	out := *resp
	out.Text = sb.String()
	return &out, nil
}

// lastCall keeps the most recent result of the wrapped client so the agent
// turn can report usage and typed errors the ADK event stream drops.
type lastCall struct {
	llm.Client

	mu   sync.Mutex
	resp *domain.Response
	fail error
}

func (l *lastCall) Invoke(ctx context.Context, prompt string) (*domain.Response, error) {
	resp, err := l.Client.Invoke(ctx, prompt)
	l.mu.Lock()
	l.resp, l.fail = resp, err
	l.mu.Unlock()
	return resp, err
}

func (l *lastCall) err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fail
}

func (l *lastCall) response() *domain.Response {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resp
}
