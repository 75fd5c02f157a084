package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gfeeds "github.com/gorilla/feeds"
	"github.com/mmcdole/gofeed"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func rssFixture(t *testing.T, items ...*gfeeds.Item) string {
	t.Helper()
	feed := &gfeeds.Feed{
		Title:       "Fixture",
		Link:        &gfeeds.Link{Href: "https://example.com"},
		Description: "fixture feed",
		Created:     fixedNow,
		Items:       items,
	}
	rss, err := feed.ToRss()
	if err != nil {
		t.Fatalf("render rss: %v", err)
	}
	return rss
}

func atomFixture(t *testing.T, items ...*gfeeds.Item) string {
	t.Helper()
	feed := &gfeeds.Feed{
		Title:   "Atom Fixture",
		Link:    &gfeeds.Link{Href: "https://atom.example.com"},
		Created: fixedNow,
		Items:   items,
	}
	atom, err := feed.ToAtom()
	if err != nil {
		t.Fatalf("render atom: %v", err)
	}
	return atom
}

func serveString(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}))
}

func TestFetchSourceSortsAndNormalizes(t *testing.T) {
	body := rssFixture(t,
		&gfeeds.Item{Title: "Older", Link: &gfeeds.Link{Href: "https://x/older"}, Description: "<p>old <b>news</b></p><script>evil()</script>", Created: fixedNow.Add(-3 * time.Hour), Id: "older-guid"},
		&gfeeds.Item{Title: "Newest", Link: &gfeeds.Link{Href: "https://x/newest"}, Description: "fresh", Created: fixedNow.Add(-1 * time.Hour)},
		&gfeeds.Item{Title: "No link", Link: &gfeeds.Link{}, Description: "dropped", Created: fixedNow},
	)
	server := serveString(body)
	defer server.Close()

	agg := NewAggregator(AggregatorConfig{Now: func() time.Time { return fixedNow }})
	items, err := agg.FetchSource(context.Background(), Source{Name: "fixture", URL: server.URL})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Newest" || items[1].Title != "Older" {
		t.Fatalf("expected newest first, got %q then %q", items[0].Title, items[1].Title)
	}
	if items[1].Content != "old news" {
		t.Fatalf("expected stripped content, got %q", items[1].Content)
	}
	if items[1].ID != "older-guid" {
		t.Fatalf("expected guid as id, got %q", items[1].ID)
	}
	if items[0].Source != "fixture" {
		t.Fatalf("expected source name, got %q", items[0].Source)
	}
}

func TestFetchSourceAtom(t *testing.T) {
	server := serveString(atomFixture(t,
		&gfeeds.Item{Title: "Atom entry", Link: &gfeeds.Link{Href: "https://atom.example.com/1"}, Description: "summary", Created: fixedNow},
	))
	defer server.Close()

	agg := NewAggregator(AggregatorConfig{})
	items, err := agg.FetchSource(context.Background(), Source{Name: "atom", URL: server.URL})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 || items[0].Link != "https://atom.example.com/1" {
		t.Fatalf("unexpected items %#v", items)
	}
}

func TestCollectFiltersInterleavesAndSkipsFailures(t *testing.T) {
	a := serveString(rssFixture(t,
		&gfeeds.Item{Title: "Urgent: Node 22 patch", Link: &gfeeds.Link{Href: "https://a/1"}, Created: fixedNow.Add(-time.Hour)},
		&gfeeds.Item{Title: "Urgent: Go release", Link: &gfeeds.Link{Href: "https://a/2"}, Created: fixedNow.Add(-2 * time.Hour)},
		&gfeeds.Item{Title: "Urgent but stale", Link: &gfeeds.Link{Href: "https://a/3"}, Created: fixedNow.Add(-72 * time.Hour)},
		&gfeeds.Item{Title: "Cooking tips", Link: &gfeeds.Link{Href: "https://a/4"}, Created: fixedNow.Add(-time.Hour)},
	))
	defer a.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	b := serveString(rssFixture(t,
		&gfeeds.Item{Title: "Security urgent fix", Link: &gfeeds.Link{Href: "https://b/1"}, Created: fixedNow.Add(-30 * time.Minute)},
		&gfeeds.Item{Title: "Repost", Link: &gfeeds.Link{Href: "https://a/1"}, Description: "urgent", Created: fixedNow.Add(-10 * time.Minute)},
	))
	defer b.Close()

	agg := NewAggregator(AggregatorConfig{Now: func() time.Time { return fixedNow }})
	items := agg.Collect(context.Background(), []Source{
		{Name: "a", URL: a.URL},
		{Name: "broken", URL: broken.URL},
		{Name: "b", URL: b.URL},
	}, Filter{Keywords: []string{"URGENT"}, MaxAge: 48 * time.Hour})

	var links []string
	for _, item := range items {
		links = append(links, item.Link)
	}
	// The repost of https://a/1 in b loses to the copy from a.
	want := []string{"https://a/1", "https://a/2", "https://b/1"}
	if len(links) != len(want) {
		t.Fatalf("expected %v, got %v", want, links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, links)
		}
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	updated := fixedNow.Add(-5 * time.Hour)
	item, ok := normalize("s", &gofeed.Item{
		Title:         "  Spaced   <em>title</em> ",
		Links:         []string{"https://x/fallback"},
		UpdatedParsed: &updated,
		Content:       "<p>longer content body</p>",
		Description:   "short",
		Enclosures:    []*gofeed.Enclosure{{URL: "https://x/audio.mp3", Type: "audio/mpeg"}, {URL: "https://x/cover.jpg", Type: "image/jpeg"}},
	}, fixedNow)
	if !ok {
		t.Fatalf("expected item to normalize")
	}
	if item.Title != "Spaced title" || item.Link != "https://x/fallback" {
		t.Fatalf("unexpected title/link %q %q", item.Title, item.Link)
	}
	if !item.PubDate.Equal(updated) {
		t.Fatalf("expected updated date fallback, got %v", item.PubDate)
	}
	if item.Content != "longer content body" {
		t.Fatalf("expected content preferred over description, got %q", item.Content)
	}
	if item.Image != "https://x/cover.jpg" {
		t.Fatalf("expected image enclosure, got %q", item.Image)
	}
	if item.ID != "https://x/fallback" {
		t.Fatalf("expected link as id, got %q", item.ID)
	}

	undated, _ := normalize("s", &gofeed.Item{Title: "t", Link: "https://x/u"}, fixedNow)
	if !undated.PubDate.Equal(fixedNow) {
		t.Fatalf("expected fetch time for undated item, got %v", undated.PubDate)
	}
}

func TestFilterMatch(t *testing.T) {
	f := Filter{Keywords: []string{"deal", " coupon "}, MaxAge: 48 * time.Hour}
	fresh := Item{Title: "Big DEAL today", PubDate: fixedNow.Add(-time.Hour)}
	if !f.Match(fresh, fixedNow) {
		t.Fatalf("expected keyword match")
	}
	if f.Match(Item{Title: "Coupon", PubDate: fixedNow.Add(-49 * time.Hour)}, fixedNow) {
		t.Fatalf("expected stale item rejected")
	}
	if f.Match(Item{Title: "Nothing here", PubDate: fixedNow}, fixedNow) {
		t.Fatalf("expected non-matching item rejected")
	}
	if !(Filter{}).Match(Item{Title: "anything"}, fixedNow) {
		t.Fatalf("empty filter accepts everything")
	}
}
