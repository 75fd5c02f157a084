package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIProviderStream(t *testing.T) {
	t.Parallel()

	errCh := make(chan error, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			errCh <- fmt.Errorf("expected auth header")
		}
		if r.URL.Path != "/chat/completions" {
			errCh <- fmt.Errorf("unexpected path %s", r.URL.Path)
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errCh <- fmt.Errorf("decode request: %w", err)
		}
		if !req.Stream {
			errCh <- fmt.Errorf("expected stream true")
		}
		if req.MaxTokens != 8192 {
			errCh <- fmt.Errorf("expected max_tokens 8192, got %d", req.MaxTokens)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{
		APIURL:    server.URL,
		APIKey:    "test-key",
		Model:     "gpt-test",
		MaxTokens: 8192,
	})

	got, err := Collect(context.Background(), provider, []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	select {
	case err := <-errCh:
		t.Fatalf("handler error: %v", err)
	default:
	}
	if got != "Hello world" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestOpenAIProviderStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIURL: server.URL, Model: "gpt-test"})
	_, err := provider.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", statusErr.StatusCode)
	}
	if statusErr.Provider != "openai" {
		t.Fatalf("expected provider openai, got %q", statusErr.Provider)
	}
}

func TestOpenAIProviderRequiresModel(t *testing.T) {
	t.Parallel()

	provider := NewOpenAIProvider(Config{APIURL: "http://127.0.0.1:1"})
	if _, err := provider.Complete(context.Background(), nil); err == nil {
		t.Fatalf("expected error without model")
	}
}

func TestOpenAIStreamErrorPayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"overloaded\"}}\n\n")
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIURL: server.URL, Model: "gpt-test"})
	if _, err := Collect(context.Background(), provider, []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatalf("expected stream error")
	}
}
