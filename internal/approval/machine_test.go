package approval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"portfolio/internal/content"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedDraft(t *testing.T, store *content.MemoryStore, title string, createdAt time.Time) content.Draft {
	t.Helper()
	d, err := store.Create(context.Background(), content.Draft{
		Title:     title,
		Slug:      title,
		Content:   "body",
		Author:    content.AutomatedAuthor,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", title, err)
	}
	return d
}

func TestMachinePublish(t *testing.T) {
	store := content.NewMemoryStore()
	d := seedDraft(t, store, "node-22", fixedNow.Add(-time.Hour))
	m := NewMachine(MachineConfig{Store: store, Now: func() time.Time { return fixedNow }})

	got, err := m.Transition(context.Background(), d.ID, ActionPublish, "telegram:alice")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !got.Published || got.PublishedAt == nil || !got.PublishedAt.Equal(fixedNow) {
		t.Fatalf("expected published at %v, got %+v", fixedNow, got)
	}
	stored, _ := store.Get(context.Background(), d.ID)
	if !stored.Published {
		t.Fatalf("store not updated")
	}

	if _, err := m.Transition(context.Background(), d.ID, ActionDelete, "telegram:alice"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending deleting a published draft, got %v", err)
	}
}

func TestMachineDelete(t *testing.T) {
	store := content.NewMemoryStore()
	d := seedDraft(t, store, "node-22", fixedNow)
	m := NewMachine(MachineConfig{Store: store})

	if _, err := m.Transition(context.Background(), d.ID, ActionDelete, "telegram:alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(context.Background(), d.ID); !errors.Is(err, content.ErrNotFound) {
		t.Fatalf("expected draft gone, got %v", err)
	}
	if _, err := m.Transition(context.Background(), d.ID, ActionPublish, "sweep"); !errors.Is(err, content.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMachineConcurrentTransitionsHaveOneWinner(t *testing.T) {
	store := content.NewMemoryStore()
	d := seedDraft(t, store, "node-22", fixedNow)
	m := NewMachine(MachineConfig{Store: store})

	actions := []Action{ActionPublish, ActionDelete, ActionPublish, ActionDelete}
	errs := make([]error, len(actions))
	var wg sync.WaitGroup
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action Action) {
			defer wg.Done()
			_, errs[i] = m.Transition(context.Background(), d.ID, action, "telegram:racer")
		}(i, action)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrNotPending), errors.Is(err, content.ErrNotFound):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning transition, got %d", wins)
	}
}

// racingStore runs rival between the machine's read and its conditional
// update.
type racingStore struct {
	*content.MemoryStore
	rival func(ctx context.Context, id string)
}

func (s *racingStore) Publish(ctx context.Context, id string, at time.Time) (bool, error) {
	s.rival(ctx, id)
	return s.MemoryStore.Publish(ctx, id, at)
}

func TestMachineLostRaceReportsCurrentState(t *testing.T) {
	mem := content.NewMemoryStore()
	d := seedDraft(t, mem, "node-22", fixedNow)
	store := &racingStore{MemoryStore: mem, rival: func(ctx context.Context, id string) {
		_, _ = mem.Publish(ctx, id, fixedNow)
	}}
	m := NewMachine(MachineConfig{Store: store})

	got, err := m.Transition(context.Background(), d.ID, ActionPublish, "sweep")
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if !got.Published {
		t.Fatalf("expected the reloaded published draft, got %+v", got)
	}
	if _, text := outcomeText(ActionPublish, got, err); text != "Already handled: node-22 is published" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestMachineLostRaceToDelete(t *testing.T) {
	mem := content.NewMemoryStore()
	d := seedDraft(t, mem, "node-22", fixedNow)
	store := &racingStore{MemoryStore: mem, rival: func(ctx context.Context, id string) {
		_, _ = mem.Delete(ctx, id)
	}}
	m := NewMachine(MachineConfig{Store: store})

	got, err := m.Transition(context.Background(), d.ID, ActionPublish, "sweep")
	if !errors.Is(err, content.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if toast, _ := outcomeText(ActionPublish, got, err); toast != "Draft not found" {
		t.Fatalf("unexpected toast %q", toast)
	}
}

func TestActorKind(t *testing.T) {
	if got := actorKind("telegram:alice"); got != "telegram" {
		t.Fatalf("unexpected kind %q", got)
	}
	if got := actorKind("sweep"); got != "sweep" {
		t.Fatalf("unexpected kind %q", got)
	}
	if got := actorKind(""); got != "unknown" {
		t.Fatalf("unexpected kind %q", got)
	}
}
