package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio/internal/content"
	"portfolio/pkg/logging"
)

type MachineConfig struct {
	Store  content.Store
	Logger logging.Logger
	Now    func() time.Time
}

// Machine is the single place drafts change state. Every transition is a
// conditional store update, so the webhook and the sweep can race safely:
// exactly one of them wins and the other gets ErrNotPending.
type Machine struct {
	store  content.Store
	logger logging.Logger
	now    func() time.Time
}

func NewMachine(cfg MachineConfig) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Machine{store: cfg.Store, logger: logger, now: now}
}

// Transition applies action to draft id on behalf of actor and returns the
// draft as it was before the change, with Published set when published.
func (m *Machine) Transition(ctx context.Context, id string, action Action, actor string) (content.Draft, error) {
	draft, err := m.store.Get(ctx, id)
	if err != nil {
		return content.Draft{}, fmt.Errorf("load draft %s: %w", id, err)
	}
	next, err := StateOf(draft).Next(action)
	if err != nil {
		transitionsTotal.WithLabelValues(string(action), actorKind(actor), "rejected").Inc()
		return draft, err
	}

	var changed bool
	switch next {
	case StatePublished:
		at := m.now().UTC()
		changed, err = m.store.Publish(ctx, id, at)
		if changed {
			draft.Published = true
			draft.PublishedAt = &at
		}
	case StateDeleted:
		changed, err = m.store.Delete(ctx, id)
	}
	if err != nil {
		transitionsTotal.WithLabelValues(string(action), actorKind(actor), "error").Inc()
		return draft, fmt.Errorf("%s draft %s: %w", action, id, err)
	}
	if !changed {
		transitionsTotal.WithLabelValues(string(action), actorKind(actor), "rejected").Inc()
		return m.afterLostRace(ctx, draft, id)
	}

	transitionsTotal.WithLabelValues(string(action), actorKind(actor), "ok").Inc()
	m.logger.WithFields(logging.Fields{
		"draft_id": id,
		"action":   string(action),
		"actor":    actor,
		"state":    next.String(),
	}).Info("Approval: draft transitioned")
	return draft, nil
}

// afterLostRace reloads the draft another transition got to first, so
// callers report the state it actually ended in.
func (m *Machine) afterLostRace(ctx context.Context, stale content.Draft, id string) (content.Draft, error) {
	current, err := m.store.Get(ctx, id)
	switch {
	case errors.Is(err, content.ErrNotFound):
		return stale, fmt.Errorf("lost race for %s: %w", id, content.ErrNotFound)
	case err != nil:
		m.logger.WithError(err).WithField("draft_id", id).Warn("Approval: failed to reload draft after lost race")
		return stale, fmt.Errorf("%w: lost race for %s", ErrNotPending, id)
	}
	return current, fmt.Errorf("%w: lost race for %s", ErrNotPending, id)
}

// actorKind keeps metric cardinality bounded: "telegram:alice" -> "telegram".
func actorKind(actor string) string {
	kind, _, _ := strings.Cut(actor, ":")
	if kind == "" {
		return "unknown"
	}
	return kind
}
