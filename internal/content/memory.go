package content

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store used for dry runs and tests.
type MemoryStore struct {
	mu     sync.Mutex
	drafts map[string]Draft
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]Draft), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, draft Draft) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.drafts {
		if existing.Slug == draft.Slug {
			return Draft{}, fmt.Errorf("insert draft %q: %w", draft.Slug, ErrSlugConflict)
		}
	}
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now
	draft.Tags = append([]string(nil), draft.Tags...)
	s.drafts[draft.ID] = draft
	return draft, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) SlugExists(_ context.Context, slug string) (bool, error) {
	return s.any(func(d Draft) bool { return d.Slug == slug }), nil
}

func (s *MemoryStore) SourceLinkExists(_ context.Context, link string) (bool, error) {
	return s.any(func(d Draft) bool { return link != "" && d.SourceLink == link }), nil
}

func (s *MemoryStore) ContentContains(_ context.Context, fragment string) (bool, error) {
	return s.any(func(d Draft) bool { return strings.Contains(d.Content, fragment) }), nil
}

func (s *MemoryStore) TitleContains(_ context.Context, phrase string) (bool, error) {
	phrase = strings.ToLower(phrase)
	return s.any(func(d Draft) bool { return strings.Contains(strings.ToLower(d.Title), phrase) }), nil
}

func (s *MemoryStore) any(match func(Draft) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.drafts {
		if match(d) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) ListPending(_ context.Context, author string, cutoff time.Time) ([]Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Draft
	for _, d := range s.drafts {
		if d.Author == author && !d.Published && d.CreatedAt.Before(cutoff) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Publish(_ context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || d.Published {
		return false, nil
	}
	at = at.UTC()
	d.Published = true
	d.PublishedAt = &at
	d.UpdatedAt = at
	s.drafts[id] = d
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || d.Published {
		return false, nil
	}
	delete(s.drafts, id)
	return true, nil
}
