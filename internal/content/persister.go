package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"portfolio/pkg/logging"
)

const fallbackSlug = "post"

type PersisterConfig struct {
	Store  Store
	Logger logging.Logger
	Now    func() time.Time
}

// Persister turns a generated candidate into a stored, unpublished draft
// with a unique slug.
type Persister struct {
	store  Store
	logger logging.Logger
	now    func() time.Time
}

func NewPersister(cfg PersisterConfig) *Persister {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Persister{store: cfg.Store, logger: logger, now: now}
}

// Persist stores candidate as an automated draft. Published state and author
// on the candidate are ignored.
func (p *Persister) Persist(ctx context.Context, candidate Draft) (Draft, error) {
	if p.store == nil {
		return Draft{}, errors.New("draft store not configured")
	}

	base := NormalizeSlug(candidate.Slug, candidate.Title)
	taken, err := p.store.SlugExists(ctx, base)
	if err != nil {
		return Draft{}, fmt.Errorf("check slug: %w", err)
	}
	candidate.Slug = base
	if taken {
		candidate.Slug = fmt.Sprintf("%s-%d", base, p.now().Unix())
		p.logger.WithFields(logging.Fields{
			"slug":     base,
			"assigned": candidate.Slug,
		}).Info("Content persister: slug taken, suffixing")
	}

	candidate.Published = false
	candidate.PublishedAt = nil
	candidate.Author = AutomatedAuthor
	candidate.Title = strings.TrimSpace(candidate.Title)

	saved, err := p.store.Create(ctx, candidate)
	if errors.Is(err, ErrSlugConflict) {
		// Another writer took the slug between the check and the insert.
		candidate.Slug = fmt.Sprintf("%s-%d", base, p.now().UnixNano())
		p.logger.WithField("slug", candidate.Slug).Warn("Content persister: slug conflict on insert, retrying once")
		saved, err = p.store.Create(ctx, candidate)
	}
	if err != nil {
		return Draft{}, fmt.Errorf("persist draft: %w", err)
	}

	draftsPersistedTotal.Inc()
	p.logger.WithFields(logging.Fields{
		"draft_id": saved.ID,
		"slug":     saved.Slug,
	}).Info("Content persister: draft stored")
	return saved, nil
}

// NormalizeSlug prefers the generated slug and falls back to the title.
func NormalizeSlug(generated, title string) string {
	if s := slug.Make(generated); s != "" {
		return s
	}
	if s := slug.Make(title); s != "" {
		return s
	}
	return fallbackSlug
}
