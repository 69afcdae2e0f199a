package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGeminiGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "write a haiku") {
			t.Errorf("expected prompt in request body, got %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"  autumn leaves fall  "}]},"finishReason":"STOP"}]}`)
	}))
	defer server.Close()

	g, err := NewGemini(context.Background(), "test-key", "gemini-test", server.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := g.Generate(context.Background(), "write a haiku")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "autumn leaves fall" {
		t.Errorf("expected trimmed reply, got %q", reply)
	}
}

func TestGeminiGenerate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	g, err := NewGemini(context.Background(), "test-key", "gemini-test", server.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = g.Generate(context.Background(), "hi")
	var pe *Error
	if !errors.As(err, &pe) || pe.Provider != "gemini" {
		t.Fatalf("expected gemini provider error, got %v", err)
	}
}

func TestGeminiGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`)
	}))
	defer server.Close()

	g, err := NewGemini(context.Background(), "test-key", "gemini-test", server.URL+"/", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := g.Generate(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for server failure")
	}
}
