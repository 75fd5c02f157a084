// Package pipeline runs one batch: collect feed items, drop duplicates,
// research, generate, classify, persist and ask a moderator for approval.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"portfolio/internal/classify"
	"portfolio/internal/content"
	"portfolio/internal/dedup"
	"portfolio/internal/feeds"
	"portfolio/internal/generate"
	"portfolio/internal/notify"
	"portfolio/internal/research"
	"portfolio/pkg/logging"
)

// DefaultItemDelay is the pause after each persisted draft.
const DefaultItemDelay = 30 * time.Second

// Collector supplies candidate items. Satisfied by *feeds.Aggregator.
type Collector interface {
	Collect(ctx context.Context, sources []feeds.Source, filter feeds.Filter) []feeds.Item
}

// PageFetcher builds the item for a --link run. Satisfied by
// *research.PageFetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (research.Page, error)
}

// Options are the per-run flags.
type Options struct {
	// Count is the number of drafts to produce. Values below one mean one.
	Count      int
	UrgentOnly bool
	DryRun     bool
	// Link skips the feeds and writes about this one page.
	Link string
	// Prompt is appended to the writing instructions.
	Prompt string
}

type RunnerConfig struct {
	Profile    Profile
	Collector  Collector
	Detector   *dedup.Detector
	Augmenter  *research.Augmenter
	Generator  *generate.Generator
	Classifier *classify.Classifier
	Persister  *content.Persister
	Notifier   notify.Notifier
	Pages      PageFetcher
	SiteURL    string
	ItemDelay  time.Duration
	// Progress receives one human-readable line per item. Nil discards.
	Progress io.Writer
	Logger   logging.Logger
	Now      func() time.Time
	Sleep    func(ctx context.Context, d time.Duration) error
}

// Runner executes pipeline runs. Items are processed strictly one after
// another.
type Runner struct {
	profile    Profile
	collector  Collector
	detector   *dedup.Detector
	augmenter  *research.Augmenter
	generator  *generate.Generator
	classifier *classify.Classifier
	persister  *content.Persister
	notifier   notify.Notifier
	pages      PageFetcher
	siteURL    string
	delay      time.Duration
	progress   io.Writer
	logger     logging.Logger
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	progress := cfg.Progress
	if progress == nil {
		progress = io.Discard
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	delay := cfg.ItemDelay
	if delay < 0 {
		delay = 0
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Runner{
		profile:    cfg.Profile,
		collector:  cfg.Collector,
		detector:   cfg.Detector,
		augmenter:  cfg.Augmenter,
		generator:  cfg.Generator,
		classifier: cfg.Classifier,
		persister:  cfg.Persister,
		notifier:   notifier,
		pages:      cfg.Pages,
		siteURL:    cfg.SiteURL,
		delay:      delay,
		progress:   progress,
		logger:     logger,
		now:        now,
		sleep:      sleep,
	}
}

// Run processes candidates until Count drafts exist, the candidates run
// out or ctx is cancelled. Item failures never fail the run; the returned
// error is reserved for a run that could not start.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	if r.generator == nil {
		return Summary{}, errors.New("pipeline: generator is required")
	}
	want := opts.Count
	if want < 1 {
		want = 1
	}

	summary := Summary{
		RunID:     uuid.NewString(),
		Pipeline:  r.profile.Name,
		StartedAt: r.now(),
	}
	log := r.logger.WithFields(logging.Fields{
		"run_id":   summary.RunID,
		"pipeline": r.profile.Name,
	})
	log.WithFields(logging.Fields{
		"count":       want,
		"urgent_only": opts.UrgentOnly,
		"dry_run":     opts.DryRun,
		"link":        opts.Link,
	}).Info("Pipeline: run started")

	items, failed := r.candidates(ctx, opts)
	if failed != nil {
		summary.add(*failed)
		itemsTotal.WithLabelValues(r.profile.Name, string(failed.Outcome)).Inc()
		r.report(len(summary.Items), want, *failed)
	}
	summary.Candidates = len(items)

	for i, item := range items {
		if summary.Produced() >= want {
			break
		}
		if ctx.Err() != nil {
			log.Warn("Pipeline: interrupted, stopping before next item")
			break
		}

		result, draft := r.processSafely(ctx, item, opts)
		summary.add(result)
		if draft != nil {
			summary.Drafts = append(summary.Drafts, *draft)
		}
		itemsTotal.WithLabelValues(r.profile.Name, string(result.Outcome)).Inc()
		r.report(summary.Produced(), want, result)

		more := summary.Produced() < want && i < len(items)-1
		if result.Outcome == OutcomeProduced && more && r.delay > 0 {
			if err := r.sleep(ctx, r.delay); err != nil {
				log.Warn("Pipeline: interrupted during item delay")
				break
			}
		}
	}

	summary.FinishedAt = r.now()
	runDuration.WithLabelValues(r.profile.Name).Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	if summary.Produced() == 0 {
		runsTotal.WithLabelValues(r.profile.Name, "empty").Inc()
	} else {
		runsTotal.WithLabelValues(r.profile.Name, "produced").Inc()
	}
	lastRunTimestamp.WithLabelValues(r.profile.Name).Set(float64(summary.FinishedAt.Unix()))

	log.WithFields(logging.Fields{
		"candidates": summary.Candidates,
		"produced":   summary.Count(OutcomeProduced),
		"dry_run":    summary.Count(OutcomeDryRun),
		"duplicate":  summary.Count(OutcomeDuplicate),
		"rejected":   summary.Count(OutcomeRejected),
		"failed":     summary.Count(OutcomeFailed),
	}).Info("Pipeline: run complete")
	return summary, nil
}

func (r *Runner) candidates(ctx context.Context, opts Options) ([]feeds.Item, *ItemResult) {
	if opts.Link != "" {
		item, err := r.linkItem(ctx, opts.Link)
		if err != nil {
			r.logger.WithError(err).WithField("link", opts.Link).Warn("Pipeline: link fetch failed")
			return nil, &ItemResult{Link: opts.Link, Outcome: OutcomeFailed, Reason: err.Error()}
		}
		return []feeds.Item{item}, nil
	}
	if r.collector == nil {
		return nil, nil
	}
	return r.collector.Collect(ctx, r.profile.Sources, r.profile.Filter(opts.UrgentOnly)), nil
}

func (r *Runner) linkItem(ctx context.Context, link string) (feeds.Item, error) {
	if r.pages == nil {
		return feeds.Item{}, errors.New("page fetcher not configured")
	}
	page, err := r.pages.Fetch(ctx, link)
	if err != nil {
		return feeds.Item{}, err
	}
	title := page.Title
	if title == "" {
		title = page.URL
	}
	return feeds.Item{
		Source:  "link",
		Title:   title,
		Link:    page.URL,
		PubDate: r.now(),
		Content: page.Text,
		ID:      page.URL,
	}, nil
}

// processSafely contains a panic to the item that caused it.
func (r *Runner) processSafely(ctx context.Context, item feeds.Item, opts Options) (result ItemResult, draft *content.Draft) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithFields(logging.Fields{
				"panic": fmt.Sprint(rec),
				"link":  item.Link,
			}).Error("Pipeline: item panicked")
			result = ItemResult{Title: item.Title, Link: item.Link, Outcome: OutcomeFailed, Reason: fmt.Sprintf("panic: %v", rec)}
			draft = nil
		}
	}()
	return r.process(ctx, item, opts)
}

func (r *Runner) process(ctx context.Context, item feeds.Item, opts Options) (ItemResult, *content.Draft) {
	result := ItemResult{Title: item.Title, Link: item.Link}
	log := r.logger.WithFields(logging.Fields{
		"pipeline": r.profile.Name,
		"link":     item.Link,
		"source":   item.Source,
	})

	if r.detector != nil {
		if reason := r.detector.Check(ctx, item.Link, item.Title); reason != dedup.ReasonNone {
			result.Outcome = OutcomeDuplicate
			result.Reason = string(reason)
			return result, nil
		}
	}

	sources := r.augmenter.Augment(ctx, item)

	gen, err := r.generator.Generate(ctx, generate.Request{
		Item:         item,
		Sources:      sources,
		Style:        r.profile.Style,
		Instructions: opts.Prompt,
	})
	if err != nil {
		log.WithError(err).Warn("Pipeline: generation failed, skipping item")
		result.Outcome = OutcomeFailed
		result.Reason = err.Error()
		return result, nil
	}
	post := gen.Post
	result.Title = post.Title
	if post.Content == "" {
		log.WithField("tier", gen.Tier.String()).Warn("Pipeline: generated post has no body, skipping item")
		result.Outcome = OutcomeFailed
		result.Reason = "generated post has no body"
		return result, nil
	}

	if r.classifier != nil {
		verdict, err := r.classifier.Classify(ctx, classify.Input{
			Title:   post.Title,
			Excerpt: post.Excerpt,
			Content: post.Content,
			Link:    item.Link,
		})
		if err != nil {
			log.WithError(err).Warn("Pipeline: classifier failed, treating as rejected")
			result.Outcome = OutcomeRejected
			result.Reason = verdict.Reason
			if result.Reason == "" {
				result.Reason = err.Error()
			}
			return result, nil
		}
		if !verdict.Approved {
			// An explicitly requested link overrides a negative verdict.
			if opts.Link == "" {
				result.Outcome = OutcomeRejected
				result.Reason = verdict.Reason
				return result, nil
			}
			log.WithField("reason", verdict.Reason).Info("Pipeline: classifier advised against requested link, continuing")
		}
	}

	candidate := content.Draft{
		Title:      post.Title,
		Slug:       post.Slug,
		Excerpt:    post.Excerpt,
		Content:    post.Content,
		Tags:       post.Tags,
		CoverImage: item.Image,
		SourceLink: item.Link,
	}

	if opts.DryRun {
		candidate.Slug = content.NormalizeSlug(candidate.Slug, candidate.Title)
		candidate.Author = content.AutomatedAuthor
		r.printDraft(candidate)
		result.Outcome = OutcomeDryRun
		return result, &candidate
	}

	if r.persister == nil {
		result.Outcome = OutcomeFailed
		result.Reason = "no content store configured"
		return result, nil
	}
	stored, err := r.persister.Persist(ctx, candidate)
	if err != nil {
		log.WithError(err).Error("Pipeline: persist failed, skipping item")
		result.Outcome = OutcomeFailed
		result.Reason = err.Error()
		return result, nil
	}
	result.Outcome = OutcomeProduced
	result.DraftID = stored.ID

	approval := notify.NewApproval(stored, r.profile.Name, r.siteURL)
	if err := r.notifier.RequestApproval(ctx, approval); err != nil {
		// The sweep publishes the draft after the grace period regardless.
		log.WithError(err).WithField("draft_id", stored.ID).Warn("Pipeline: approval request failed")
	}
	return result, &stored
}

func (r *Runner) printDraft(d content.Draft) {
	enc := json.NewEncoder(r.progress)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		r.logger.WithError(err).Warn("Pipeline: failed to print dry-run draft")
	}
}

func (r *Runner) report(done, want int, res ItemResult) {
	line := fmt.Sprintf("[%d/%d] %-9s %s", done, want, res.Outcome, res.Title)
	if res.Title == "" {
		line = fmt.Sprintf("[%d/%d] %-9s %s", done, want, res.Outcome, res.Link)
	}
	if res.DraftID != "" {
		line += " (" + res.DraftID + ")"
	} else if res.Reason != "" {
		line += " (" + res.Reason + ")"
	}
	fmt.Fprintln(r.progress, line)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
