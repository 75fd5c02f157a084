package feeds

import (
	"fmt"
	"testing"
)

func itemsFor(source string, n int) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{Source: source, Title: fmt.Sprintf("%s%d", source, i), Link: fmt.Sprintf("https://%s/%d", source, i)}
	}
	return out
}

func TestInterleaveRoundRobin(t *testing.T) {
	got := Interleave([][]Item{itemsFor("A", 3), itemsFor("B", 1), itemsFor("C", 2)})

	want := []string{"A0", "B0", "C0", "A1", "C1", "A2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Fatalf("position %d: expected %s, got %s", i, title, got[i].Title)
		}
	}
}

func TestInterleaveNoRunsUntilShorterSourcesExhausted(t *testing.T) {
	lengths := map[string]int{"A": 3, "B": 1, "C": 2}
	got := Interleave([][]Item{itemsFor("A", 3), itemsFor("B", 1), itemsFor("C", 2)})

	used := map[string]int{}
	for i, item := range got {
		used[item.Source]++
		if i == 0 || got[i-1].Source != item.Source {
			continue
		}
		for src, n := range lengths {
			if src != item.Source && used[src] < n {
				t.Fatalf("source %s repeated at %d while %s still had items", item.Source, i, src)
			}
		}
	}
}

func TestInterleaveEmpty(t *testing.T) {
	if got := Interleave(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if got := Interleave([][]Item{{}, itemsFor("X", 2)}); len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
}

func TestDedupeLinksKeepsFirst(t *testing.T) {
	items := []Item{
		{Source: "A", Link: "https://x/a"},
		{Source: "B", Link: "https://x/b"},
		{Source: "C", Link: "https://x/a"},
	}
	got := DedupeLinks(items)
	if len(got) != 2 || got[0].Source != "A" || got[1].Source != "B" {
		t.Fatalf("unexpected dedupe result %#v", got)
	}
}
