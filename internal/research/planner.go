package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio/internal/feeds"
	"portfolio/internal/recovery"
	"portfolio/pkg/llm"
)

const planTimeout = 45 * time.Second

const plannerSystemPrompt = `You plan web research for a technical blog post.
Given a news item, propose up to 3 short web search queries that would find
primary sources, official announcements or deeper technical coverage.
Respond with ONLY a JSON object: {"queries": ["...", "..."]}`

type queryPlan struct {
	Queries []string `json:"queries"`
}

// planQueries asks the model for search queries. The item title is the
// fallback when the model fails or answers with something unparseable.
func planQueries(ctx context.Context, provider llm.Provider, item feeds.Item, max int) ([]string, error) {
	fallback := []string{item.Title}
	if provider == nil {
		return fallback, nil
	}

	ctx, cancel := context.WithTimeout(ctx, planTimeout)
	defer cancel()

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Title: %s\n", item.Title)
	fmt.Fprintf(&prompt, "Link: %s\n", item.Link)
	if item.Content != "" {
		fmt.Fprintf(&prompt, "Summary: %s\n", truncateRunes(item.Content, 600))
	}

	raw, err := llm.Collect(ctx, provider, []llm.Message{
		{Role: "system", Content: plannerSystemPrompt},
		{Role: "user", Content: prompt.String()},
	})
	if err != nil {
		return fallback, fmt.Errorf("plan queries: %w", err)
	}
	var plan queryPlan
	if err := recovery.DecodeStrict(raw, &plan); err != nil {
		return fallback, fmt.Errorf("parse query plan: %w", err)
	}

	queries := make([]string, 0, max)
	seen := make(map[string]struct{})
	for _, q := range plan.Queries {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		queries = append(queries, q)
		if len(queries) == max {
			break
		}
	}
	if len(queries) == 0 {
		return fallback, nil
	}
	return queries, nil
}
