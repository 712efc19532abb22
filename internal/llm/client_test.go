package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func newTestClient(url string, maxRetries int) *Client {
	c := NewClient(url, "test-key", "test-model", 5*time.Second, maxRetries)
	c.sleep = func(time.Duration) {} // no real backoff in tests
	return c
}

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-litellm-api-key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(completionBody("world"))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL, 2).Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "world" {
		t.Errorf("expected 'world', got %q", got)
	}
}

func TestCompleteRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(completionBody("eventually"))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL, 3).Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "eventually" {
		t.Errorf("expected 'eventually', got %q", got)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", n)
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 2).Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", n)
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("error should mention attempt count: %v", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL, 1).Complete(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestDefaultBackoffIsCapped(t *testing.T) {
	if d := defaultBackoff(1); d != 2*time.Second {
		t.Errorf("attempt 1: expected 2s, got %v", d)
	}
	if d := defaultBackoff(2); d != 4*time.Second {
		t.Errorf("attempt 2: expected 4s, got %v", d)
	}
	if d := defaultBackoff(10); d != 4*time.Second {
		t.Errorf("attempt 10: expected cap 4s, got %v", d)
	}
}

func TestDraftFollowupTrims(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		json.NewDecoder(r.Body).Decode(&req)
		prompt := req.Messages[0].Content
		for _, want := range []string{"Acme", "gone quiet", "call me in June"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
		json.NewEncoder(w).Encode(completionBody("\n  Hi Acme team, ...\n"))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL, 1).DraftFollowup(context.Background(), "Acme", "gone quiet", "call me in June")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hi Acme team, ..." {
		t.Errorf("expected trimmed text, got %q", got)
	}
}

func TestClassifyTone(t *testing.T) {
	tests := []struct {
		reply string
		want  string
	}{
		{"positive", "positive"},
		{"Negative.", "negative"},
		{"I think it is neutral", "neutral"},
		{"no idea", "neutral"},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(completionBody(tt.reply))
		}))
		got, err := newTestClient(server.URL, 1).ClassifyTone(context.Background(), "some message")
		server.Close()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("reply %q: expected %q, got %q", tt.reply, tt.want, got)
		}
	}
}
