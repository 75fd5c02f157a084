// Package research gathers supplementary sources for a feed item before
// generation: the model plans a few search queries, results are searched and
// the top pages are fetched as readable text.
package research

import (
	"context"
	"strings"
	"time"

	"portfolio/internal/feeds"
	"portfolio/pkg/breaker"
	"portfolio/pkg/llm"
	"portfolio/pkg/logging"
	"portfolio/pkg/search"
)

const (
	defaultMaxQueries      = 3
	defaultResultsPerQuery = 3
	defaultMaxSources      = 3
	// quotaBreakerDelay keeps research off for the remainder of a run once a
	// provider reports the account unusable.
	quotaBreakerDelay = 24 * time.Hour
)

// Source is one supplementary page handed to generation.
type Source struct {
	Title string
	URL   string
	Text  string
}

// Fetcher loads readable page text.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (Page, error)
}

type AugmenterConfig struct {
	LLM     llm.Provider
	Search  search.Provider
	Fetcher Fetcher
	Logger  logging.Logger

	MaxQueries      int
	ResultsPerQuery int
	MaxSources      int
	// Topic is passed to the search provider (e.g. search.TopicNews).
	Topic string
}

type Augmenter struct {
	llm             llm.Provider
	search          search.Provider
	fetcher         Fetcher
	logger          logging.Logger
	quota           *breaker.Breaker
	maxQueries      int
	resultsPerQuery int
	maxSources      int
	topic           string
}

func NewAugmenter(cfg AugmenterConfig) *Augmenter {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	a := &Augmenter{
		llm:             cfg.LLM,
		search:          cfg.Search,
		fetcher:         cfg.Fetcher,
		logger:          logger,
		maxQueries:      orDefault(cfg.MaxQueries, defaultMaxQueries),
		resultsPerQuery: orDefault(cfg.ResultsPerQuery, defaultResultsPerQuery),
		maxSources:      orDefault(cfg.MaxSources, defaultMaxSources),
		topic:           cfg.Topic,
	}
	a.quota = breaker.New(breaker.Config{
		Name:             "search-quota",
		FailureThreshold: 1,
		Delay:            quotaBreakerDelay,
		Handle:           search.IsQuotaExhausted,
		Logger:           logger,
	})
	if a.fetcher == nil {
		a.fetcher = NewPageFetcher(PageFetcherConfig{Logger: logger})
	}
	return a
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Enabled reports whether Augment can return anything: a search provider is
// configured and has not reported its quota exhausted.
func (a *Augmenter) Enabled() bool {
	return a != nil && a.search != nil && !a.quota.IsOpen()
}

// Augment returns up to MaxSources pages related to item. It never fails the
// item: every error is logged and research ends early with what it has.
func (a *Augmenter) Augment(ctx context.Context, item feeds.Item) []Source {
	if !a.Enabled() {
		return nil
	}

	queries, err := planQueries(ctx, a.llm, item, a.maxQueries)
	if err != nil {
		a.logger.WithError(err).Warn("Research augmenter: query planning failed, searching by title")
	}

	seen := map[string]struct{}{normalizeURL(item.Link): {}}
	var sources []Source
	for _, query := range queries {
		if len(sources) >= a.maxSources || ctx.Err() != nil {
			break
		}
		results, ok := a.runSearch(ctx, query)
		if !ok {
			break
		}
		for _, r := range results {
			if len(sources) >= a.maxSources {
				break
			}
			key := normalizeURL(r.URL)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			page, err := a.fetcher.Fetch(ctx, r.URL)
			if err != nil {
				a.logger.WithError(err).WithField("url", r.URL).Debug("Research augmenter: page fetch failed")
				continue
			}
			title := page.Title
			if title == "" {
				title = r.Title
			}
			sources = append(sources, Source{Title: title, URL: r.URL, Text: page.Text})
		}
	}

	researchSourcesTotal.Add(float64(len(sources)))
	a.logger.WithFields(logging.Fields{
		"link":    item.Link,
		"queries": len(queries),
		"sources": len(sources),
	}).Info("Research augmenter: research complete")
	return sources
}

func (a *Augmenter) runSearch(ctx context.Context, query string) ([]search.Result, bool) {
	var results []search.Result
	err := a.quota.Call(func() error {
		var err error
		results, err = a.search.Search(ctx, query, search.SearchOptions{
			Limit: a.resultsPerQuery,
			Topic: a.topic,
		})
		return err
	})
	switch {
	case err == nil:
		researchSearchesTotal.WithLabelValues("ok").Inc()
		return results, true
	case breaker.IsRejection(err):
		return nil, false
	case search.IsQuotaExhausted(err):
		researchSearchesTotal.WithLabelValues("quota").Inc()
		a.logger.WithError(err).Warn("Research augmenter: search quota exhausted, research disabled for this run")
		return nil, false
	default:
		researchSearchesTotal.WithLabelValues("error").Inc()
		a.logger.WithError(err).WithField("query", query).Warn("Research augmenter: search failed")
		return nil, true
	}
}

func normalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
