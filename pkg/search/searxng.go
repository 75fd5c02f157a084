package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// SearxngProvider implements the SearXNG JSON API.
type SearxngProvider struct {
	apiURL string
	http   httpJSON
}

// NewSearxngProvider creates a SearXNG provider.
func NewSearxngProvider(apiURL string) (*SearxngProvider, error) {
	if strings.TrimSpace(apiURL) == "" {
		return nil, fmt.Errorf("searxng api url is required")
	}
	return &SearxngProvider{
		apiURL: strings.TrimRight(apiURL, "/"),
		http:   newHTTPJSON("searxng"),
	}, nil
}

type searxngResponse struct {
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Search executes a query against a SearXNG instance. SearXNG ignores
// result counts, so the limit is applied client side.
func (p *SearxngProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	if opts.Topic == TopicNews {
		q.Set("categories", "news")
	}

	var decoded searxngResponse
	if err := p.http.get(ctx, p.apiURL+"/search", q, nil, &decoded); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, item := range decoded.Results {
		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.URL,
			Content: strings.TrimSpace(item.Content),
			Score:   item.Score,
		})
	}
	return results, nil
}
