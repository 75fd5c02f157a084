package pipeline

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"portfolio/internal/feeds"
	"portfolio/pkg/search"
)

// Profile is everything that differs between the news, deals and stories
// pipelines.
type Profile struct {
	Name    string
	Sources []feeds.Source
	// Keywords prefilter items before any model call. Empty accepts all.
	Keywords []string
	// UrgentKeywords replace Keywords when a run asks for urgent items only.
	UrgentKeywords []string
	Window         time.Duration
	// Question is put to the classifier. A negative verdict skips any
	// feed item.
	Question    string
	Style       string
	SearchTopic string
}

// Filter returns the feed prefilter for one run.
func (p Profile) Filter(urgentOnly bool) feeds.Filter {
	keywords := p.Keywords
	if urgentOnly && len(p.UrgentKeywords) > 0 {
		keywords = p.UrgentKeywords
	}
	return feeds.Filter{Keywords: keywords, MaxAge: p.Window}
}

var profiles = map[string]Profile{
	"news": {
		Name: "news",
		Sources: []feeds.Source{
			{Name: "Hacker News", URL: "https://hnrss.org/frontpage?points=150"},
			{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/technology-lab"},
			{Name: "The Register", URL: "https://www.theregister.com/software/headlines.atom"},
			{Name: "Go Blog", URL: "https://go.dev/blog/feed.atom"},
		},
		Keywords: []string{
			"release", "released", "launch", "announce", "update", "security",
			"vulnerability", "cve-", "exploit", "breach", "outage", "patch",
			"deprecat", "acquire", "layoff", "open source", "golang",
		},
		UrgentKeywords: []string{
			"vulnerability", "cve-", "zero-day", "exploit", "breach", "outage",
			"security update", "patch", "critical", "deprecat", "end of life", "released",
		},
		Window:      48 * time.Hour,
		Question:    "Is this urgent news a working software engineer should act on or know about today?",
		Style:       "Write a timely news brief: what happened, who is affected, what to do now. 400-700 words.",
		SearchTopic: search.TopicNews,
	},
	"deals": {
		Name: "deals",
		Sources: []feeds.Source{
			{Name: "Slickdeals", URL: "https://slickdeals.net/newsearch.php?mode=frontpage&searcharea=deals&rss=1"},
			{Name: "r/buildapcsales", URL: "https://www.reddit.com/r/buildapcsales/.rss"},
			{Name: "r/GameDeals", URL: "https://www.reddit.com/r/GameDeals/.rss"},
		},
		Keywords: []string{
			"deal", "% off", "discount", "sale", "price drop", "lowest price",
			"coupon", "free", "bundle", "$",
		},
		Window:   48 * time.Hour,
		Question: "Is this a verified, currently working deal on developer hardware, software or learning material?",
		Style:    "Write a short deal roundup: the product, the price, why it matters to developers, and when it expires. 250-450 words.",
	},
	"stories": {
		Name: "stories",
		Sources: []feeds.Source{
			{Name: "r/programming", URL: "https://www.reddit.com/r/programming/top/.rss?t=week"},
			{Name: "Lobsters", URL: "https://lobste.rs/rss"},
			{Name: "DEV", URL: "https://dev.to/feed"},
		},
		Keywords: []string{
			"postmortem", "post-mortem", "lessons", "how we", "why we", "migrat",
			"debugging", "incident", "rewrite", "scaling", "story", "learned",
		},
		Window:   7 * 24 * time.Hour,
		Question: "Is this a substantive engineering story with concrete technical lessons, not marketing or a listicle?",
		Style:    "Write a thoughtful long-form analysis of the story: context, what went right or wrong, and transferable lessons. 800-1200 words.",
	},
}

// ProfileNames lists the known pipelines in stable order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupProfile returns the named profile. When override is non-empty it
// replaces the default sources.
func LookupProfile(name string, override []string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown pipeline %q (want one of %s)", name, strings.Join(ProfileNames(), ", "))
	}
	if len(override) > 0 {
		sources, err := ParseSources(override)
		if err != nil {
			return Profile{}, fmt.Errorf("%s feeds: %w", p.Name, err)
		}
		p.Sources = sources
	}
	return p, nil
}

// ParseSources reads "Name=URL" or bare URL entries. A bare URL is named
// after its host.
func ParseSources(entries []string) ([]feeds.Source, error) {
	sources := make([]feeds.Source, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, rawURL, named := strings.Cut(entry, "=")
		if !named || strings.Contains(name, "://") {
			name, rawURL = "", entry
		}
		u, err := url.Parse(strings.TrimSpace(rawURL))
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("invalid feed url %q", rawURL)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = u.Host
		}
		sources = append(sources, feeds.Source{Name: name, URL: u.String()})
	}
	return sources, nil
}
