package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecordingTransport_RecordsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"error":{"message":"short and stout"}}`))
	}))
	defer srv.Close()

	ctx, ex := withExchange(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)

	resp, err := (&RecordingTransport{}).RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	defer resp.Body.Close()

	// Body must still be readable by the caller
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"error":{"message":"short and stout"}}` {
		t.Errorf("unexpected body %q", body)
	}

	status, recorded, ok := ex.last()
	if !ok || status != http.StatusTeapot || string(recorded) != string(body) {
		t.Errorf("unexpected exchange: ok=%v status=%d body=%q", ok, status, recorded)
	}
}

func TestRecordingTransport_NoExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := (&RecordingTransport{}).RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestRecordingTransport_AuthHeader(t *testing.T) {
	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("api-key")
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("Authorization", "Bearer k")

	resp, err := (&RecordingTransport{Token: "k", AuthHeader: "api-key"}).RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "" || gotKey != "k" {
		t.Errorf("expected key in api-key header only, got Authorization=%q api-key=%q", gotAuth, gotKey)
	}
	if req.Header.Get("Authorization") != "Bearer k" {
		t.Error("original request must not be modified")
	}
}

func TestExchange_NilSafe(t *testing.T) {
	var ex *exchange
	if _, _, ok := ex.last(); ok {
		t.Error("expected no response on nil exchange")
	}
	if exchangeFrom(context.Background()) != nil {
		t.Error("expected no exchange on bare context")
	}
}
