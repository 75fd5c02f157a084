package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTavilySearch(t *testing.T) {
	t.Parallel()

	errCh := make(chan error, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			errCh <- fmt.Errorf("expected POST, got %s", r.Method)
		}
		var req tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errCh <- fmt.Errorf("decode request: %w", err)
		}
		if req.APIKey != "test-key" || req.MaxResults != 3 || req.Topic != TopicNews {
			errCh <- fmt.Errorf("unexpected request %#v", req)
		}
		_ = json.NewEncoder(w).Encode(tavilyResponse{Results: []tavilyResult{
			{Title: " Node 22 released ", URL: "https://nodejs.org/en/blog", Content: "snippet", Score: 0.9},
		}})
	}))
	defer server.Close()

	provider, err := NewTavilyProvider("test-key", server.URL)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	results, err := provider.Search(context.Background(), "node 22", SearchOptions{Limit: 3, Topic: TopicNews})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	select {
	case err := <-errCh:
		t.Fatalf("handler error: %v", err)
	default:
	}
	if len(results) != 1 || results[0].Title != "Node 22 released" {
		t.Fatalf("unexpected results %#v", results)
	}
}

func TestBraveSearch(t *testing.T) {
	t.Parallel()

	errCh := make(chan error, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Subscription-Token") != "brave-key" {
			errCh <- fmt.Errorf("expected subscription token")
		}
		if got := r.URL.Query().Get("count"); got != "2" {
			errCh <- fmt.Errorf("expected count 2, got %q", got)
		}
		if got := r.URL.Query().Get("freshness"); got != "pw" {
			errCh <- fmt.Errorf("expected freshness pw, got %q", got)
		}
		var resp braveResponse
		resp.Web.Results = []braveResult{
			{Title: "first", URL: "https://a.example", Description: "one"},
			{Title: "second", URL: "https://b.example", Description: "two"},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewBraveProvider("brave-key", server.URL)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	results, err := provider.Search(context.Background(), "deal", SearchOptions{Limit: 2, Topic: TopicNews})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	select {
	case err := <-errCh:
		t.Fatalf("handler error: %v", err)
	default:
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Score <= results[1].Score {
		t.Fatalf("expected descending rank scores, got %v and %v", results[0].Score, results[1].Score)
	}
}

func TestSearxngSearchAppliesLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("format") != "json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(searxngResponse{Results: []searxngResult{
			{Title: "a", URL: "https://a"}, {Title: "b", URL: "https://b"}, {Title: "c", URL: "https://c"},
		}})
	}))
	defer server.Close()

	provider, err := NewSearxngProvider(server.URL + "/")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	results, err := provider.Search(context.Background(), "q", SearchOptions{Limit: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected limit 2, got %d", len(results))
	}
}

func TestQuotaStatusIsDistinguishable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		quota  bool
	}{
		{http.StatusUnauthorized, true},
		{http.StatusPaymentRequired, true},
		{http.StatusForbidden, true},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		provider, _ := NewTavilyProvider("k", server.URL)
		_, err := provider.Search(context.Background(), "q", SearchOptions{})
		server.Close()

		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != tc.status {
			t.Fatalf("status %d: expected StatusError, got %v", tc.status, err)
		}
		if got := IsQuotaExhausted(err); got != tc.quota {
			t.Fatalf("status %d: IsQuotaExhausted = %v, want %v", tc.status, got, tc.quota)
		}
	}
	if IsQuotaExhausted(errors.New("dial tcp: refused")) {
		t.Fatalf("network errors are not quota errors")
	}
}

func TestConfigEnabled(t *testing.T) {
	t.Parallel()

	if (Config{}).Enabled() {
		t.Fatalf("empty config must be disabled")
	}
	if (Config{Provider: "tavily"}).Enabled() {
		t.Fatalf("tavily without key must be disabled")
	}
	if !(Config{Provider: "searxng", APIURL: "http://searx"}).Enabled() {
		t.Fatalf("searxng with url must be enabled")
	}
	if _, err := NewProvider(Config{Provider: "bing"}); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
}
