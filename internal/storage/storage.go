package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when an exchange does not exist
var ErrNotFound = errors.New("exchange not found")

// Exchange statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ExchangeRecord is the persisted form of one prompt/response exchange
type ExchangeRecord struct {
	ID           string          `json:"id"`
	Backend      string          `json:"backend"` // Client name, e.g. openai-gpt-4o
	Model        string          `json:"model"`
	Prompt       string          `json:"prompt"`
	Text         string          `json:"text,omitempty"`
	Raw          json.RawMessage `json:"raw,omitempty"`
	Status       string          `json:"status"` // success, error
	ErrorKind    string          `json:"error_kind,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Repository Storage interface
type Repository interface {
	SaveExchange(ctx context.Context, record *ExchangeRecord) error
	GetExchange(ctx context.Context, id string) (*ExchangeRecord, error)
	ListRecentExchanges(ctx context.Context, limit int) ([]*ExchangeRecord, error)
	Close() error
}
