package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"llm-chat-client/internal/domain"
	"llm-chat-client/internal/storage"
	"llm-chat-client/internal/types"
)

// MockClient mocks the llm.Client interface
type MockClient struct {
	InvokeFunc func(ctx context.Context, prompt string) (*domain.Response, error)
}

func (m *MockClient) Name() string { return "mock-test-model" }

func (m *MockClient) Model() string { return "test-model" }

func (m *MockClient) Invoke(ctx context.Context, prompt string) (*domain.Response, error) {
	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, prompt)
	}
	return &domain.Response{Text: "echo: " + prompt, Model: "test-model"}, nil
}

// MockRepository is an in-memory storage.Repository
type MockRepository struct {
	mu      sync.Mutex
	records []*storage.ExchangeRecord
	SaveErr error
}

func (m *MockRepository) SaveExchange(ctx context.Context, record *storage.ExchangeRecord) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *MockRepository) GetExchange(ctx context.Context, id string) (*storage.ExchangeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *MockRepository) ListRecentExchanges(ctx context.Context, limit int) ([]*storage.ExchangeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*storage.ExchangeRecord(nil), m.records...), nil
}

func (m *MockRepository) Close() error { return nil }

func TestProcessor_Process_Success(t *testing.T) {
	repo := &MockRepository{}
	p := New(&MockClient{}, repo)

	resp, err := p.Process(context.Background(), "What is Hello World?")
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if resp.Text != "echo: What is Hello World?" {
		t.Errorf("unexpected text %q", resp.Text)
	}

	if len(repo.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(repo.records))
	}
	rec := repo.records[0]
	if rec.Status != storage.StatusSuccess || rec.Text != resp.Text || rec.Backend != "mock-test-model" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.ID == "" {
		t.Error("Expected record ID to be set")
	}
}

func TestProcessor_Process_ErrorRecorded(t *testing.T) {
	repo := &MockRepository{}
	p := New(&MockClient{
		InvokeFunc: func(ctx context.Context, prompt string) (*domain.Response, error) {
			return nil, types.NewStatusError(429, []byte("slow down"))
		},
	}, repo)

	_, err := p.Process(context.Background(), "hi")
	if types.Kind(err) != types.KindTransport {
		t.Fatalf("Expected transport error, got %v", err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(repo.records))
	}
	rec := repo.records[0]
	if rec.Status != storage.StatusError || rec.ErrorKind != types.KindTransport {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Model != "test-model" {
		t.Errorf("Expected configured model on error record, got %q", rec.Model)
	}
}

func TestProcessor_Process_ConfigurationErrorNotRecorded(t *testing.T) {
	repo := &MockRepository{}
	p := New(&MockClient{
		InvokeFunc: func(ctx context.Context, prompt string) (*domain.Response, error) {
			return nil, types.NewConfigurationError("llm.api_key", "is required")
		},
	}, repo)

	if _, err := p.Process(context.Background(), "hi"); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if len(repo.records) != 0 {
		t.Errorf("Expected no records, got %d", len(repo.records))
	}
}

func TestProcessor_Process_StorageFailureDoesNotMaskResult(t *testing.T) {
	p := New(&MockClient{}, &MockRepository{SaveErr: errors.New("disk full")})

	resp, err := p.Process(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if resp == nil || resp.Text != "echo: hi" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestProcessor_Process_NilStorage(t *testing.T) {
	p := New(&MockClient{}, nil)
	if _, err := p.Process(context.Background(), "hi"); err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
}

func TestProcessor_InvokeAll_OrderAndIsolation(t *testing.T) {
	p := New(&MockClient{
		InvokeFunc: func(ctx context.Context, prompt string) (*domain.Response, error) {
			if prompt == "p3" {
				return nil, &types.ProviderError{StatusCode: 400, Code: "bad", Message: "bad prompt"}
			}
			return &domain.Response{Text: "echo: " + prompt}, nil
		},
	}, nil)

	prompts := make([]string, 10)
	for i := range prompts {
		prompts[i] = fmt.Sprintf("p%d", i)
	}

	results := p.InvokeAll(context.Background(), prompts, 3)
	if len(results) != len(prompts) {
		t.Fatalf("Expected %d results, got %d", len(prompts), len(results))
	}
	for i, r := range results {
		if r.Prompt != prompts[i] {
			t.Errorf("result %d: expected prompt %s, got %s", i, prompts[i], r.Prompt)
		}
		if i == 3 {
			if types.Kind(r.Err) != types.KindProvider {
				t.Errorf("result 3: expected provider error, got %v", r.Err)
			}
			continue
		}
		if r.Err != nil || r.Response.Text != "echo: "+prompts[i] {
			t.Errorf("result %d: unexpected %+v", i, r)
		}
	}
}

func TestProcessor_InvokeAll_Limit(t *testing.T) {
	var inFlight, peak atomic.Int32
	p := New(&MockClient{
		InvokeFunc: func(ctx context.Context, prompt string) (*domain.Response, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			return &domain.Response{Text: prompt}, nil
		},
	}, nil)

	p.InvokeAll(context.Background(), []string{"a", "b", "c", "d", "e", "f"}, 2)
	if got := peak.Load(); got > 2 {
		t.Errorf("Expected at most 2 concurrent invocations, got %d", got)
	}
}
