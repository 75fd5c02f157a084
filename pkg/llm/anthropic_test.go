package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicProviderStream(t *testing.T) {
	t.Parallel()

	errCh := make(chan error, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			errCh <- fmt.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			errCh <- fmt.Errorf("expected api key header")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errCh <- fmt.Errorf("decode request: %w", err)
		}
		if req.System != "be brief" {
			errCh <- fmt.Errorf("expected system prompt, got %q", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			errCh <- fmt.Errorf("unexpected messages %#v", req.Messages)
		}
		if req.MaxTokens != defaultAnthropicMaxTokens {
			errCh <- fmt.Errorf("expected default max tokens, got %d", req.MaxTokens)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\ndata: {\"type\":\"message_start\"}\n\n")
		fmt.Fprint(w, "event: content_block_start\ndata: {\"type\":\"content_block_start\",\"content_block\":{\"type\":\"text\",\"text\":\"\"}}\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"{\\\"title\\\":\"}}\n\n")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"\\\"x\\\"}\"}}\n\n")
		fmt.Fprint(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	provider := NewAnthropicProvider(Config{APIURL: server.URL, APIKey: "test-key", Model: "claude-test"})
	got, err := Collect(context.Background(), provider, []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "write"},
	})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	select {
	case err := <-errCh:
		t.Fatalf("handler error: %v", err)
	default:
	}
	if got != `{"title":"x"}` {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestAnthropicStreamErrorEvent(t *testing.T) {
	t.Parallel()

	if _, err := decodeAnthropicEvent([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`)); err == nil {
		t.Fatalf("expected error event to surface")
	}
}
