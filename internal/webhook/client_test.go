package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/octobees/desamiantage-leads/internal/entity"
	"github.com/octobees/desamiantage-leads/internal/logging"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestClient_Forward(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-ID") != "req-1" || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"result":"success"}`))
	}))
	defer server.Close()

	client := NewClient(context.Background(), Options{URL: server.URL, HTTPClient: server.Client()})
	lead := entity.ScoredLead{LeadID: "lead-1", Name: "Claire Martin", LeadScore: 4, IP: "203.0.113.9"}
	if err := client.Forward(context.Background(), lead, "req-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received["nom"] != "Claire Martin" || received["leadScore"] != float64(4) || received["ip"] != "203.0.113.9" {
		t.Fatalf("unexpected payload: %v", received)
	}
	for _, internal := range []string{"honeypot", "recaptchaToken", "submitDelay"} {
		if _, ok := received[internal]; ok {
			t.Fatalf("payload must not carry %s", internal)
		}
	}
}

func TestClient_ForwardStatusError(t *testing.T) {
	client := NewClient(context.Background(), Options{
		URL: "http://sheet.example",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(strings.NewReader(`{"error":"quota exceeded"}`)),
			}, nil
		})},
	})

	err := client.Forward(context.Background(), entity.ScoredLead{}, "")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError || statusErr.Body != "quota exceeded" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestClient_ForwardTransportError(t *testing.T) {
	client := NewClient(context.Background(), Options{
		URL: "http://sheet.example",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("network down")
		})},
	})
	if err := client.Forward(context.Background(), entity.ScoredLead{}, ""); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(context.Background(), Options{URL: "  "})
	if client.Configured() {
		t.Fatalf("expected unconfigured client")
	}
	if err := client.Forward(context.Background(), entity.ScoredLead{}, ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewClient_WarnsWhenIdentityTokenUnavailable(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", t.TempDir()+"/missing.json")

	var logs bytes.Buffer
	client := NewClient(context.Background(), Options{
		URL:      "https://hooks.example.com/lead",
		Audience: "https://hooks.example.com",
		Logger:   logging.NewWithWriter(&logs, "info"),
	})

	if !client.Configured() {
		t.Fatalf("expected client to stay configured")
	}
	if !strings.Contains(logs.String(), "webhook identity token unavailable") {
		t.Fatalf("expected warning about missing credentials, got %q", logs.String())
	}
	if !strings.Contains(logs.String(), `"audience":"https://hooks.example.com"`) {
		t.Fatalf("expected audience in warning, got %q", logs.String())
	}
}

func TestExtractError(t *testing.T) {
	if msg := extractError(strings.NewReader(`{"error":"boom"}`)); msg != "boom" {
		t.Fatalf("expected boom, got %s", msg)
	}
	if msg := extractError(strings.NewReader(`{"message":"nope"}`)); msg != "nope" {
		t.Fatalf("expected nope, got %s", msg)
	}
	if msg := extractError(strings.NewReader(`not-json`)); msg != "not-json" {
		t.Fatalf("expected raw body fallback, got %s", msg)
	}
	if msg := extractError(bytes.NewReader(nil)); msg != "" {
		t.Fatalf("expected empty message, got %s", msg)
	}
}
