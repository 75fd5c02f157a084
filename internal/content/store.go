package content

import (
	"context"
	"time"
)

// Store persists drafts. Publish and Delete only act on unpublished drafts
// and report whether a row changed, so two competing transitions can never
// both succeed.
type Store interface {
	Create(ctx context.Context, draft Draft) (Draft, error)
	Get(ctx context.Context, id string) (Draft, error)

	SlugExists(ctx context.Context, slug string) (bool, error)
	SourceLinkExists(ctx context.Context, link string) (bool, error)
	// ContentContains reports whether any stored body contains fragment.
	ContentContains(ctx context.Context, fragment string) (bool, error)
	// TitleContains matches phrase case-insensitively against stored titles.
	TitleContains(ctx context.Context, phrase string) (bool, error)

	// ListPending returns unpublished drafts by author created before cutoff,
	// oldest first.
	ListPending(ctx context.Context, author string, cutoff time.Time) ([]Draft, error)
	Publish(ctx context.Context, id string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}
