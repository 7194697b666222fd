package types

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error kinds reported by Kind.
const (
	KindConfiguration = "configuration"
	KindTransport     = "transport"
	KindProvider      = "provider"
	KindUnknown       = "unknown"
)

// Transport error codes.
const (
	CodeConnection = "connection"
	CodeTimeout    = "timeout"
	CodeCanceled   = "canceled"
	CodeRateLimit  = "rate_limit"
	CodeAuth       = "auth"
	CodeNotFound   = "not_found"
	CodeBadRequest = "bad_request"
	CodeServer     = "server"
)

// Provider error codes assigned locally when the provider gave none.
const (
	CodeEmptyResponse   = "empty_response"
	CodeInvalidResponse = "invalid_response"
)

// ConfigurationError represents missing or malformed local configuration.
// It is raised before any network call and is never worth retrying.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a ConfigurationError for a field.
func NewConfigurationError(field, message string) error {
	return &ConfigurationError{Field: field, Message: message}
}

// TransportError represents a network-layer failure: connection problems,
// timeouts, cancellation, or a non-2xx status without a provider error body.
type TransportError struct {
	StatusCode int    // 0 when no response was received
	Code       string // See Code* constants
	Message    string
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport error: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transport error: %s: %s", e.Code, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err as a TransportError with the given code.
func NewTransportError(code string, err error) error {
	return &TransportError{Code: code, Message: err.Error(), Err: err}
}

// NewStatusError classifies a non-2xx status that carried no provider error payload.
func NewStatusError(statusCode int, body []byte) error {
	return &TransportError{
		StatusCode: statusCode,
		Code:       StatusCode(statusCode),
		Message:    http.StatusText(statusCode),
		Body:       body,
	}
}

// ProviderError represents a well-formed error reported by the provider,
// such as a rate limit or an unknown model. It is surfaced verbatim.
type ProviderError struct {
	StatusCode int
	Code       string
	Type       string
	Param      string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error: %s: %s", e.Code, e.Message)
}

// StatusCode maps an HTTP status to a transport error code.
func StatusCode(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return CodeRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CodeAuth
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return CodeTimeout
	case status >= 400 && status < 500:
		return CodeBadRequest
	default:
		return CodeServer
	}
}

// Kind returns the error kind of err, or KindUnknown if it is not one of ours.
func Kind(err error) string {
	var cfgErr *ConfigurationError
	var transportErr *TransportError
	var providerErr *ProviderError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &providerErr):
		return KindProvider
	default:
		return KindUnknown
	}
}

// IsRetryable reports whether a caller may retry the operation with backoff.
// Transport errors are retryable unless the caller cancelled; provider errors
// only for rate limits and server-side failures.
func IsRetryable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Code == CodeCanceled || errors.Is(err, context.Canceled) {
			return false
		}
		return transportErr.StatusCode == 0 || transportErr.StatusCode == http.StatusTooManyRequests ||
			transportErr.StatusCode >= 500 || transportErr.Code == CodeTimeout
	}
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.StatusCode == http.StatusTooManyRequests || providerErr.StatusCode >= 500
	}
	return false
}

// Describe renders err as "<kind>: <message>" without repeating the kind.
func Describe(err error) string {
	var cfgErr *ConfigurationError
	var transportErr *TransportError
	var providerErr *ProviderError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		if cfgErr.Field != "" {
			return fmt.Sprintf("%s: %s: %s", KindConfiguration, cfgErr.Field, cfgErr.Message)
		}
		return fmt.Sprintf("%s: %s", KindConfiguration, cfgErr.Message)
	case errors.As(err, &transportErr):
		return fmt.Sprintf("%s: %s: %s", KindTransport, transportErr.Code, transportErr.Message)
	case errors.As(err, &providerErr):
		return fmt.Sprintf("%s: %s: %s", KindProvider, providerErr.Code, providerErr.Message)
	default:
		return fmt.Sprintf("%s: %s", KindUnknown, err.Error())
	}
}
