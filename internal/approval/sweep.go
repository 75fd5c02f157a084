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

// DefaultGrace is how long a moderator has before a draft is auto-published.
const DefaultGrace = 15 * time.Minute

// SweepActor is recorded for transitions made by the sweep.
const SweepActor = "sweep"

// Announcer is satisfied by every notify.Notifier.
type Announcer interface {
	Announce(ctx context.Context, text string, silent bool) error
}

type SweeperConfig struct {
	Machine   *Machine
	Store     content.Store
	Announcer Announcer
	Grace     time.Duration
	Logger    logging.Logger
	Now       func() time.Time
}

// Sweeper publishes automated drafts nobody acted on within the grace period.
type Sweeper struct {
	machine   *Machine
	store     content.Store
	announcer Announcer
	grace     time.Duration
	logger    logging.Logger
	now       func() time.Time
}

func NewSweeper(cfg SweeperConfig) *Sweeper {
	grace := cfg.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		machine:   cfg.Machine,
		store:     cfg.Store,
		announcer: cfg.Announcer,
		grace:     grace,
		logger:    logger,
		now:       now,
	}
}

// SweepResult lists what one sweep did.
type SweepResult struct {
	Published []content.Draft
	// Skipped counts drafts a moderator handled between listing and update.
	Skipped int
	Failed  int
}

// Sweep publishes every unpublished automated draft created before
// now - grace. Per-draft failures are logged and counted.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	cutoff := s.now().Add(-s.grace)
	pending, err := s.store.ListPending(ctx, content.AutomatedAuthor, cutoff)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list pending drafts: %w", err)
	}

	var res SweepResult
	for _, d := range pending {
		if ctx.Err() != nil {
			break
		}
		published, err := s.machine.Transition(ctx, d.ID, ActionPublish, SweepActor)
		switch {
		case err == nil:
			res.Published = append(res.Published, published)
		case errors.Is(err, ErrNotPending) || errors.Is(err, content.ErrNotFound):
			res.Skipped++
		default:
			res.Failed++
			s.logger.WithError(err).WithField("draft_id", d.ID).Warn("Approval sweep: publish failed")
		}
	}

	s.logger.WithFields(logging.Fields{
		"candidates": len(pending),
		"published":  len(res.Published),
		"skipped":    res.Skipped,
		"failed":     res.Failed,
		"cutoff":     cutoff.UTC().Format(time.RFC3339),
	}).Info("Approval sweep: complete")

	if len(res.Published) > 0 && s.announcer != nil {
		if err := s.announcer.Announce(ctx, sweepSummary(res.Published), true); err != nil {
			s.logger.WithError(err).Warn("Approval sweep: announcement failed")
		}
	}
	return res, nil
}

func sweepSummary(drafts []content.Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Auto-published %d draft(s) after the grace period:", len(drafts))
	for _, d := range drafts {
		fmt.Fprintf(&b, "\n• %s", d.Title)
	}
	return b.String()
}
