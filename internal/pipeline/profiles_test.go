package pipeline

import (
	"testing"
	"time"

	"portfolio/internal/feeds"
)

func TestLookupProfileDefaults(t *testing.T) {
	tests := []struct {
		name   string
		window time.Duration
	}{
		{name: "news", window: 48 * time.Hour},
		{name: "deals", window: 48 * time.Hour},
		{name: "stories", window: 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		p, err := LookupProfile(tt.name, nil)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if p.Window != tt.window {
			t.Fatalf("%s: unexpected window %v", tt.name, p.Window)
		}
		if len(p.Sources) == 0 || p.Question == "" || p.Style == "" {
			t.Fatalf("%s: incomplete profile %+v", tt.name, p)
		}
	}

	if _, err := LookupProfile("weather", nil); err == nil {
		t.Fatalf("expected error for unknown pipeline")
	}
}

func TestLookupProfileOverridesFeeds(t *testing.T) {
	p, err := LookupProfile(" NEWS ", []string{"Go=https://go.dev/blog/feed.atom", "https://hnrss.org/newest?points=100"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(p.Sources) != 2 {
		t.Fatalf("expected overridden sources, got %+v", p.Sources)
	}
	if p.Sources[0].Name != "Go" || p.Sources[0].URL != "https://go.dev/blog/feed.atom" {
		t.Fatalf("unexpected named source %+v", p.Sources[0])
	}
	if p.Sources[1].Name != "hnrss.org" || p.Sources[1].URL != "https://hnrss.org/newest?points=100" {
		t.Fatalf("unexpected bare source %+v", p.Sources[1])
	}

	if _, err := LookupProfile("news", []string{"ftp://example.com/feed"}); err == nil {
		t.Fatalf("expected error for non-http feed")
	}
}

func TestProfileUrgentOnly(t *testing.T) {
	p, _ := LookupProfile("news", nil)

	relaxed := p.Filter(false)
	urgent := p.Filter(true)
	if len(urgent.Keywords) == 0 || len(urgent.Keywords) == len(relaxed.Keywords) {
		t.Fatalf("urgent-only should swap in the urgency keywords, got %v", urgent.Keywords)
	}
	now := time.Now()
	routine := feeds.Item{Title: "Go 1.27 released with new iterator helpers", PubDate: now}
	if !relaxed.Match(routine, now) {
		t.Fatalf("news base keywords should accept a release item")
	}
	if recipe := (feeds.Item{Title: "My favourite sourdough recipe", PubDate: now}); relaxed.Match(recipe, now) {
		t.Fatalf("news base keywords should drop off-topic items")
	}

	deals, _ := LookupProfile("deals", nil)
	if got := deals.Filter(true).Keywords; len(got) != len(deals.Keywords) {
		t.Fatalf("deals has no urgency list and keeps its keywords, got %v", got)
	}
}

func TestEveryProfilePrefilters(t *testing.T) {
	for _, name := range ProfileNames() {
		p, err := LookupProfile(name, nil)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(p.Filter(false).Keywords) == 0 {
			t.Fatalf("%s: feed runs must prefilter by keyword", name)
		}
	}
}

func TestProfileNamesSorted(t *testing.T) {
	names := ProfileNames()
	if len(names) != 3 || names[0] != "deals" || names[1] != "news" || names[2] != "stories" {
		t.Fatalf("unexpected names %v", names)
	}
}
