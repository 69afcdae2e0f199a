package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAnthropicGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("expected path /v1/messages, got %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected x-api-key test-key, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("expected anthropic-version %s, got %q", anthropicVersion, r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]any{{"type": "text", "text": "  world \n"}},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	a, err := NewAnthropic("test-key", "test-model", server.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := a.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "world" {
		t.Errorf("expected trimmed reply 'world', got %q", reply)
	}
}

func TestAnthropicGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		})
	}))
	defer server.Close()

	a, _ := NewAnthropic("test-key", "test-model", server.URL, time.Second)

	_, err := a.Generate(context.Background(), "hi")
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *provider.Error, got %v", err)
	}
	if pe.Provider != "anthropic" {
		t.Errorf("expected provider anthropic, got %q", pe.Provider)
	}
}

func TestAnthropicGenerate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []any{}, "stop_reason": "end_turn"})
	}))
	defer server.Close()

	a, _ := NewAnthropic("test-key", "test-model", server.URL, time.Second)

	if _, err := a.Generate(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty content response")
	}
}

func TestNewAnthropic_RequiresKey(t *testing.T) {
	if _, err := NewAnthropic("", "m", "http://localhost", time.Second); err == nil {
		t.Fatal("expected error without API key")
	}
}
