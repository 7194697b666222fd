package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"

	"llm-chat-client/internal/metrics"
)

// maxRecordedBody caps how much of a provider response is buffered.
const maxRecordedBody = 32 << 20

// exchange records the last provider response seen during one call.
// Each call gets its own exchange through the request context, so
// concurrent calls on one client never share it.
type exchange struct {
	mu         sync.Mutex
	statusCode int
	body       []byte
	responses  int
}

func (e *exchange) record(statusCode int, body []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusCode = statusCode
	e.body = body
	e.responses++
}

// last returns the most recent status and body, and whether any response arrived.
func (e *exchange) last() (int, []byte, bool) {
	if e == nil {
		return 0, nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusCode, e.body, e.responses > 0
}

type exchangeKey struct{}

func withExchange(ctx context.Context) (context.Context, *exchange) {
	ex := &exchange{}
	return context.WithValue(ctx, exchangeKey{}, ex), ex
}

func exchangeFrom(ctx context.Context) *exchange {
	ex, _ := ctx.Value(exchangeKey{}).(*exchange)
	return ex
}

// RecordingTransport wraps http.RoundTripper to inject a custom auth header and
// to record provider responses for error classification.
type RecordingTransport struct {
	Base       http.RoundTripper
	Token      string
	AuthHeader string // e.g. "api-key"; empty keeps the library's Bearer header
}

// RoundTrip implements http.RoundTripper
func (t *RecordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.AuthHeader != "" && t.Token != "" {
		req = req.Clone(req.Context())
		req.Header.Del("Authorization")
		req.Header.Set(t.AuthHeader, t.Token)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	metrics.ProviderResponses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	ex := exchangeFrom(req.Context())
	if ex == nil {
		return resp, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordedBody))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	ex.record(resp.StatusCode, body)
	return resp, nil
}

func newHTTPClient(base http.RoundTripper, token, authHeader string) *http.Client {
	return &http.Client{
		Transport: &RecordingTransport{
			Base:       base,
			Token:      token,
			AuthHeader: authHeader,
		},
	}
}
