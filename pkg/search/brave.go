package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const defaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

// BraveProvider implements the Brave Search API.
type BraveProvider struct {
	apiKey string
	apiURL string
	http   httpJSON
}

// NewBraveProvider creates a Brave search provider.
func NewBraveProvider(apiKey, apiURL string) (*BraveProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("brave api key is required")
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultBraveURL
	}
	return &BraveProvider{
		apiKey: apiKey,
		apiURL: apiURL,
		http:   newHTTPJSON("brave"),
	}, nil
}

type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Search executes a query against the Brave Search API.
func (p *BraveProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	q := url.Values{}
	q.Set("q", query)
	if opts.Limit > 0 {
		q.Set("count", strconv.Itoa(opts.Limit))
	}
	// Brave has no topic switch; "pw" (past week) keeps news queries fresh.
	if opts.Topic == TopicNews {
		q.Set("freshness", "pw")
	}

	var decoded braveResponse
	if err := p.http.get(ctx, p.apiURL, q, map[string]string{"X-Subscription-Token": p.apiKey}, &decoded); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(decoded.Web.Results))
	for i, item := range decoded.Web.Results {
		results = append(results, Result{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.URL,
			Content: strings.TrimSpace(item.Description),
			Score:   rankScore(i, len(decoded.Web.Results)),
		})
	}
	return results, nil
}

// rankScore turns a result position into a descending score for providers
// that only return an ordered list.
func rankScore(index, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total-index) / float64(total)
}
