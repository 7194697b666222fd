package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	"llm-chat-client/internal/domain"
	"llm-chat-client/internal/storage"
	"llm-chat-client/internal/types"

	"github.com/go-chi/chi/v5"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

type invokeRequest struct {
	Prompt string `json:"prompt"`
}

type invokeResponse struct {
	Text         string       `json:"text"`
	Model        string       `json:"model,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
	Usage        domain.Usage `json:"usage"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Warn("read body failed", "error", err)
		writeError(w, http.StatusBadRequest, errorDetail{Kind: types.KindConfiguration, Code: "bad_body", Message: "error reading request body"})
		return
	}
	if !utf8.Valid(body) {
		writeError(w, http.StatusBadRequest, errorDetail{Kind: types.KindConfiguration, Code: "bad_body", Message: "invalid encoding"})
		return
	}

	var req invokeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, errorDetail{Kind: types.KindConfiguration, Code: "bad_body", Message: "invalid json: " + err.Error()})
		return
	}

	// Check capacity before calling the provider
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	default:
		slog.Warn("concurrency limit, request dropped")
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, errorDetail{Kind: types.KindTransport, Code: "busy", Message: "server busy, please retry later"})
		return
	}

	resp, err := s.proc.Process(r.Context(), req.Prompt)
	if err != nil {
		status, detail := errorResponse(err)
		slog.Info("invoke failed", "kind", detail.Kind, "code", detail.Code, "status", status)
		writeError(w, status, detail)
		return
	}

	writeJSON(w, http.StatusOK, invokeResponse{
		Text:         resp.Text,
		Model:        resp.Model,
		FinishReason: resp.FinishReason,
		Usage:        resp.Usage,
	})
}

func (s *Server) handleListExchanges(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "History disabled", http.StatusNotFound)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errorDetail{Kind: types.KindConfiguration, Code: "bad_limit", Message: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.store.ListRecentExchanges(r.Context(), limit)
	if err != nil {
		slog.Error("list exchanges failed", "error", err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*storage.ExchangeRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetExchange(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "History disabled", http.StatusNotFound)
		return
	}

	record, err := s.store.GetExchange(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("get exchange failed", "error", err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// errorResponse maps an invoke error to an HTTP status and body
func errorResponse(err error) (int, errorDetail) {
	var cfgErr *types.ConfigurationError
	var transportErr *types.TransportError
	var providerErr *types.ProviderError

	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, errorDetail{Kind: types.KindConfiguration, Code: cfgErr.Field, Message: cfgErr.Error()}
	case errors.As(err, &providerErr):
		status := http.StatusBadGateway
		if providerErr.StatusCode >= 400 && providerErr.StatusCode < 600 {
			status = providerErr.StatusCode
		}
		return status, errorDetail{Kind: types.KindProvider, Code: providerErr.Code, Message: providerErr.Message}
	case errors.As(err, &transportErr):
		status := http.StatusBadGateway
		if transportErr.Code == types.CodeTimeout {
			status = http.StatusGatewayTimeout
		}
		return status, errorDetail{Kind: types.KindTransport, Code: transportErr.Code, Message: transportErr.Error()}
	default:
		return http.StatusInternalServerError, errorDetail{Kind: types.KindUnknown, Message: err.Error()}
	}
}

func writeError(w http.ResponseWriter, status int, detail errorDetail) {
	writeJSON(w, status, errorBody{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}
