package feeds

import (
	"strings"
	"time"
)

// Source is one syndication endpoint.
type Source struct {
	Name string
	URL  string
}

// Item is a normalized feed entry. It lives only for the duration of a run;
// Link is its natural key.
type Item struct {
	Source  string
	Title   string
	Link    string
	PubDate time.Time
	Content string
	ID      string
	Image   string
}

// Filter drops items before any generation budget is spent on them.
type Filter struct {
	// Keywords are matched case-insensitively against title and content.
	// An empty list accepts every item.
	Keywords []string
	// MaxAge drops items published earlier than now-MaxAge. Zero disables
	// the recency cutoff.
	MaxAge time.Duration
}

// Match reports whether item passes the filter at time now.
func (f Filter) Match(item Item, now time.Time) bool {
	if f.MaxAge > 0 && item.PubDate.Before(now.Add(-f.MaxAge)) {
		return false
	}
	if len(f.Keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(item.Title + " " + item.Content)
	for _, kw := range f.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
