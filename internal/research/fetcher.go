package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"portfolio/pkg/logging"
)

const (
	defaultUserAgent    = "Mozilla/5.0 (compatible; PortfolioAutopost/1.0)"
	defaultFetchTimeout = 20 * time.Second
	maxPageBytes        = 2 << 20
	// MaxPageRunes caps the text kept from one page.
	MaxPageRunes = 4000
)

// Page is readable text pulled from one URL.
type Page struct {
	URL   string
	Title string
	Text  string
}

type PageFetcherConfig struct {
	HTTPClient *http.Client
	UserAgent  string
	// Renderer is used only when the static HTML looks like an empty shell.
	Renderer Renderer
	Logger   logging.Logger
}

type PageFetcher struct {
	client    *http.Client
	userAgent string
	renderer  Renderer
	logger    logging.Logger
}

func NewPageFetcher(cfg PageFetcherConfig) *PageFetcher {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &PageFetcher{client: client, userAgent: userAgent, renderer: cfg.Renderer, logger: logger}
}

// Fetch downloads pageURL and returns its readable text.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("create page request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		pageFetchesTotal.WithLabelValues("error").Inc()
		return Page{}, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		pageFetchesTotal.WithLabelValues("error").Inc()
		return Page{}, fmt.Errorf("fetch page: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		pageFetchesTotal.WithLabelValues("error").Inc()
		return Page{}, fmt.Errorf("read page: %w", err)
	}

	var title, text string
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/plain") || strings.HasPrefix(ct, "text/markdown") {
		text = normalizeContent(string(data))
	} else {
		title, text = extractPage(data, pageURL)
	}

	if looksLikeEmptyShell(text) && f.renderer != nil {
		if rendered, err := f.renderer.Render(ctx, pageURL); err != nil {
			f.logger.WithError(err).WithField("url", pageURL).Warn("Page fetcher: render failed, keeping static text")
		} else {
			rTitle, rText := extractPage([]byte(rendered), pageURL)
			if len(strings.Fields(rText)) > len(strings.Fields(text)) {
				title, text = rTitle, rText
				pageFetchesTotal.WithLabelValues("rendered").Inc()
			}
		}
	}

	if text == "" {
		pageFetchesTotal.WithLabelValues("empty").Inc()
		return Page{}, fmt.Errorf("no readable text at %s", pageURL)
	}
	pageFetchesTotal.WithLabelValues("ok").Inc()
	return Page{URL: pageURL, Title: title, Text: truncateRunes(text, MaxPageRunes)}, nil
}
