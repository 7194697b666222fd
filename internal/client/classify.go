package client

import (
	"context"
	"errors"
	"fmt"
	"net"

	"llm-chat-client/internal/types"

	"github.com/tidwall/gjson"
)

// Candidate paths for provider error payloads, prioritized from left to right.
var (
	pathsErrorMessage = []string{
		"error.message", // OpenAI and compatible gateways
		"error",         // Flat string errors (Ollama, some proxies)
		"message",
	}
	pathsErrorCode = []string{
		"error.code",
		"error.type",
		"code",
	}
)

// classify turns any failure of a provider call into exactly one of the
// three error kinds. ctx must be the call's own context so that its deadline
// is visible here.
func classify(ctx context.Context, err error, ex *exchange) error {
	if err == nil {
		return nil
	}
	if types.Kind(err) != types.KindUnknown {
		return err
	}

	// The call's own deadline or cancellation wins over anything the library reports
	switch ctxErr := ctx.Err(); ctxErr {
	case context.DeadlineExceeded:
		return contextError(types.CodeTimeout, ctxErr, err)
	case context.Canceled:
		return contextError(types.CodeCanceled, ctxErr, err)
	}

	if status, body, ok := ex.last(); ok {
		if providerErr := parseProviderError(status, body); providerErr != nil {
			return providerErr
		}
		if status < 200 || status >= 300 {
			return types.NewStatusError(status, body)
		}
		// A well-formed reply without text is reported the same way by every backend
		if lacksText(body) {
			return emptyResponse(ex)
		}
		// 2xx that the library could not turn into a completion
		return &types.ProviderError{
			StatusCode: status,
			Code:       types.CodeInvalidResponse,
			Message:    err.Error(),
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewTransportError(types.CodeTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.NewTransportError(types.CodeTimeout, err)
	}
	return types.NewTransportError(types.CodeConnection, err)
}

// contextError keeps both the context error and the library's error in the chain.
func contextError(code string, ctxErr, err error) error {
	if errors.Is(err, ctxErr) {
		return types.NewTransportError(code, err)
	}
	return &types.TransportError{
		Code:    code,
		Message: err.Error(),
		Err:     fmt.Errorf("%w: %w", ctxErr, err),
	}
}

// parseProviderError extracts a well-formed provider error payload, or returns nil.
func parseProviderError(status int, body []byte) *types.ProviderError {
	if !gjson.ValidBytes(body) {
		return nil
	}

	message := probe(body, pathsErrorMessage)
	if message.Type != gjson.String || message.String() == "" {
		return nil
	}

	code := probe(body, pathsErrorCode).String()
	if code == "" {
		code = types.StatusCode(status)
	}

	return &types.ProviderError{
		StatusCode: status,
		Code:       code,
		Type:       gjson.GetBytes(body, "error.type").String(),
		Param:      gjson.GetBytes(body, "error.param").String(),
		Message:    message.String(),
	}
}

// lacksText reports whether body is a completion whose choices carry no text.
func lacksText(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return false
	}
	choices := gjson.GetBytes(body, "choices")
	if !choices.IsArray() {
		return false
	}
	return gjson.GetBytes(body, "choices.0.message.content").String() == ""
}

// probe returns the first existing, non-null result among paths.
func probe(body []byte, paths []string) gjson.Result {
	for _, path := range paths {
		if res := gjson.GetBytes(body, path); res.Exists() && res.Type != gjson.Null {
			return res
		}
	}
	return gjson.Result{}
}
