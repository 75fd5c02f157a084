package pipeline

import (
	"fmt"
	"strings"
	"time"

	"portfolio/internal/content"
)

// Outcome is what happened to one candidate item.
type Outcome string

const (
	OutcomeProduced  Outcome = "produced"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
	OutcomeDryRun    Outcome = "dry-run"
)

// ItemResult records one processed item.
type ItemResult struct {
	Title   string  `json:"title"`
	Link    string  `json:"link"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
	DraftID string  `json:"draft_id,omitempty"`
}

// Summary is the per-run report.
type Summary struct {
	RunID      string          `json:"run_id"`
	Pipeline   string          `json:"pipeline"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Candidates int             `json:"candidates"`
	Items      []ItemResult    `json:"items"`
	Drafts     []content.Draft `json:"drafts,omitempty"`
}

func (s *Summary) add(r ItemResult) {
	s.Items = append(s.Items, r)
}

// Count returns how many items ended with outcome o.
func (s Summary) Count(o Outcome) int {
	n := 0
	for _, r := range s.Items {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Produced counts items that yielded a draft, persisted or not.
func (s Summary) Produced() int {
	return s.Count(OutcomeProduced) + s.Count(OutcomeDryRun)
}

// String renders the one-line summary printed at the end of a run.
func (s Summary) String() string {
	parts := []string{
		fmt.Sprintf("%d produced", s.Count(OutcomeProduced)),
	}
	if n := s.Count(OutcomeDryRun); n > 0 {
		parts = append(parts, fmt.Sprintf("%d dry-run", n))
	}
	parts = append(parts,
		fmt.Sprintf("%d duplicate", s.Count(OutcomeDuplicate)),
		fmt.Sprintf("%d rejected", s.Count(OutcomeRejected)),
		fmt.Sprintf("%d failed", s.Count(OutcomeFailed)),
	)
	return fmt.Sprintf("%s: %s of %d candidates in %s",
		s.Pipeline, strings.Join(parts, ", "), s.Candidates,
		s.FinishedAt.Sub(s.StartedAt).Round(time.Second))
}
