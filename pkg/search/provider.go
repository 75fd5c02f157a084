package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Provider defines the interface for web search providers.
type Provider interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error)
}

// Result represents a single search result.
type Result struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// SearchOptions controls search behavior across providers.
type SearchOptions struct {
	Limit       int
	SearchDepth string
	// Topic narrows the index where the provider supports it.
	Topic string
}

// TopicNews asks providers to prefer recent news coverage.
const TopicNews = "news"

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d", e.Provider, e.StatusCode)
}

// IsQuotaExhausted reports whether err means the account can no longer
// search: bad or revoked key (401), payment required (402) or a plan limit
// surfaced as forbidden (403).
func IsQuotaExhausted(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	switch statusErr.StatusCode {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
		return true
	default:
		return false
	}
}

func checkStatus(provider string, resp *http.Response) error {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Provider: provider, StatusCode: resp.StatusCode}
	}
	return nil
}
