package feeds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"portfolio/pkg/logging"
)

const (
	defaultUserAgent    = "Mozilla/5.0 (compatible; PortfolioAutopost/1.0)"
	defaultFetchTimeout = 20 * time.Second
	maxFeedBytes        = 5 << 20
)

type AggregatorConfig struct {
	HTTPClient *http.Client
	Logger     logging.Logger
	UserAgent  string
	// MaxPerSource caps items kept per source after sorting. Zero keeps all.
	MaxPerSource int
	Now          func() time.Time
}

// Aggregator fetches sources one at a time, in order.
type Aggregator struct {
	client       *http.Client
	logger       logging.Logger
	userAgent    string
	maxPerSource int
	now          func() time.Time
}

func NewAggregator(cfg AggregatorConfig) *Aggregator {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		client:       client,
		logger:       logger,
		userAgent:    userAgent,
		maxPerSource: cfg.MaxPerSource,
		now:          now,
	}
}

// Collect fetches every source, filters each list, interleaves them and drops
// repeated links. A failing source is logged and skipped.
func (a *Aggregator) Collect(ctx context.Context, sources []Source, filter Filter) []Item {
	now := a.now()
	lists := make([][]Item, 0, len(sources))
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		items, err := a.FetchSource(ctx, src)
		if err != nil {
			feedFetchesTotal.WithLabelValues(src.Name, "error").Inc()
			a.logger.WithError(err).WithField("source", src.Name).Warn("Feed aggregator: source fetch failed, skipping")
			continue
		}
		feedFetchesTotal.WithLabelValues(src.Name, "ok").Inc()

		kept := make([]Item, 0, len(items))
		for _, item := range items {
			if filter.Match(item, now) {
				kept = append(kept, item)
			}
		}
		feedItemsTotal.WithLabelValues(src.Name, "fetched").Add(float64(len(items)))
		feedItemsTotal.WithLabelValues(src.Name, "kept").Add(float64(len(kept)))
		a.logger.WithFields(logging.Fields{
			"source":  src.Name,
			"fetched": len(items),
			"kept":    len(kept),
		}).Debug("Feed aggregator: source fetched")
		lists = append(lists, kept)
	}
	return DedupeLinks(Interleave(lists))
}

// FetchSource downloads and normalizes one feed, newest first.
func (a *Aggregator) FetchSource(ctx context.Context, src Source) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	fetchedAt := a.now()
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if item, ok := normalize(src.Name, entry, fetchedAt); ok {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PubDate.After(items[j].PubDate)
	})
	if a.maxPerSource > 0 && len(items) > a.maxPerSource {
		items = items[:a.maxPerSource]
	}
	return items, nil
}

func normalize(source string, entry *gofeed.Item, fetchedAt time.Time) (Item, bool) {
	if entry == nil {
		return Item{}, false
	}
	link := strings.TrimSpace(entry.Link)
	if link == "" && len(entry.Links) > 0 {
		link = strings.TrimSpace(entry.Links[0])
	}
	title := collapseSpace(plainText(entry.Title))
	if link == "" || title == "" {
		return Item{}, false
	}

	pubDate := fetchedAt
	switch {
	case entry.PublishedParsed != nil:
		pubDate = *entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		pubDate = *entry.UpdatedParsed
	}

	raw := entry.Description
	if len(strings.TrimSpace(entry.Content)) > len(strings.TrimSpace(raw)) {
		raw = entry.Content
	}

	id := strings.TrimSpace(entry.GUID)
	if id == "" {
		id = link
	}

	return Item{
		Source:  source,
		Title:   title,
		Link:    link,
		PubDate: pubDate.UTC(),
		Content: truncateRunes(plainText(raw), maxSnippetRunes),
		ID:      id,
		Image:   imageOf(entry),
	}, true
}

func imageOf(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}
	for _, enc := range entry.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
