package content

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreLookupsAndTransitions(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	old, _ := store.Create(ctx, Draft{Title: "Critical Security Patch Released", Slug: "old", Content: "see https://x/a", Author: AutomatedAuthor, SourceLink: "https://x/a", CreatedAt: base.Add(-20 * time.Minute)})
	fresh, _ := store.Create(ctx, Draft{Title: "Fresh", Slug: "fresh", Author: AutomatedAuthor, CreatedAt: base.Add(-5 * time.Minute)})
	_, _ = store.Create(ctx, Draft{Title: "Manual", Slug: "manual", Author: "human", CreatedAt: base.Add(-time.Hour)})

	if _, err := store.Create(ctx, Draft{Slug: "old"}); !errors.Is(err, ErrSlugConflict) {
		t.Fatalf("expected slug conflict, got %v", err)
	}
	if ok, _ := store.TitleContains(ctx, "critical security patch"); !ok {
		t.Fatalf("expected case-insensitive title match")
	}
	if ok, _ := store.ContentContains(ctx, "https://x/a"); !ok {
		t.Fatalf("expected content match")
	}
	if ok, _ := store.SourceLinkExists(ctx, ""); ok {
		t.Fatalf("empty link must not match")
	}

	pending, _ := store.ListPending(ctx, AutomatedAuthor, base.Add(-15*time.Minute))
	if len(pending) != 1 || pending[0].ID != old.ID {
		t.Fatalf("expected only the old automated draft, got %#v", pending)
	}

	if ok, _ := store.Publish(ctx, old.ID, base); !ok {
		t.Fatalf("expected publish to succeed")
	}
	if ok, _ := store.Delete(ctx, old.ID); ok {
		t.Fatalf("published draft must not be deletable")
	}
	if ok, _ := store.Delete(ctx, fresh.ID); !ok {
		t.Fatalf("expected delete to succeed")
	}
	if _, err := store.Get(ctx, fresh.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
