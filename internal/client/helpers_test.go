package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"llm-chat-client/internal/config"
	"llm-chat-client/internal/llm"

	"github.com/tidwall/gjson"
)

// mockProvider is an OpenAI-compatible server that counts the calls it receives.
type mockProvider struct {
	*httptest.Server
	calls atomic.Int32
}

func newMockProvider(t *testing.T, handler http.HandlerFunc) *mockProvider {
	t.Helper()
	m := &mockProvider{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// newStalledProvider never answers. Its handlers return once the client goes
// away or the test ends, so closing the server cannot block.
func newStalledProvider(t *testing.T) *mockProvider {
	t.Helper()
	release := make(chan struct{})
	m := newMockProvider(t, func(w http.ResponseWriter, r *http.Request) {
		// The server only notices a disconnect once the body is consumed
		io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	// Registered after newMockProvider, so it runs before the server closes
	t.Cleanup(func() { close(release) })
	return m
}

// backends lists every client implementation; property tests run against each.
var backends = []struct {
	name string
	new  func(t *testing.T, cfg config.LLMConfig) llm.Client
}{
	{config.BackendOpenAI, func(t *testing.T, cfg config.LLMConfig) llm.Client {
		return NewOpenAIAdapter(cfg)
	}},
	{config.BackendLangChain, func(t *testing.T, cfg config.LLMConfig) llm.Client {
		a, err := NewLangChainAdapter(cfg)
		if err != nil {
			t.Fatalf("NewLangChainAdapter: %v", err)
		}
		return a
	}},
}

func testConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{
		Model:    "test-model",
		Endpoint: endpoint,
		APIKey:   "k",
		Timeout:  5 * time.Second,
	}
}

// requestPrompt extracts the user prompt from a chat request body. Content may
// be a plain string or a list of text parts depending on the client library.
func requestPrompt(body []byte) string {
	content := gjson.GetBytes(body, "messages.0.content")
	if content.IsArray() {
		return content.Get("0.text").String()
	}
	return content.String()
}

func readBody(t *testing.T, r *http.Request) []byte {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("read request body: %v", err)
	}
	return body
}

func writeCompletion(w http.ResponseWriter, model, content string) {
	w.Header().Set("Content-Type", "application/json")
	response := map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1677652288,
		"model":   model,
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     9,
			"completion_tokens": 12,
			"total_tokens":      21,
		},
	}
	json.NewEncoder(w).Encode(response)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
