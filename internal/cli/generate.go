package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"portfolio/internal/classify"
	"portfolio/internal/config"
	"portfolio/internal/content"
	"portfolio/internal/dedup"
	"portfolio/internal/feeds"
	"portfolio/internal/generate"
	"portfolio/internal/pipeline"
	"portfolio/pkg/llm"
)

type generateOptions struct {
	pipeline   string
	count      int
	urgentOnly bool
	dryRun     bool
	link       string
	prompt     string
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Produce drafts from the configured feeds",
		Example: `  autopost generate --type=news --count=3 --urgent-only
  autopost generate --type=stories --link=https://example.com/postmortem --prompt="Focus on the database layer"
  autopost generate --type=deals --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.pipeline, "type", "news", "pipeline: "+strings.Join(pipeline.ProfileNames(), "|"))
	cmd.Flags().IntVar(&opts.count, "count", 1, "maximum drafts to produce")
	cmd.Flags().BoolVar(&opts.urgentOnly, "urgent-only", false, "only urgent items; the classifier verdict becomes binding")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print drafts instead of storing them, send no notifications")
	cmd.Flags().StringVar(&opts.link, "link", "", "write about this page instead of reading feeds")
	cmd.Flags().StringVar(&opts.prompt, "prompt", "", "extra instructions for the writer")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, opts generateOptions) error {
	cfg := a.loadConfig()
	if err := cfg.Validate(config.CommandGenerate); err != nil {
		return err
	}
	override, err := cfg.SourcesFor(opts.pipeline)
	if err != nil {
		return err
	}
	profile, err := pipeline.LookupProfile(opts.pipeline, override)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	writer, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("generation provider: %w", err)
	}
	judge, err := llm.NewProvider(cfg.Classifier)
	if err != nil {
		return fmt.Errorf("classifier provider: %w", err)
	}

	handle, err := openStore(ctx, cfg, a.logger)
	if err != nil {
		return err
	}
	defer handle.close()

	notifier, _, err := buildNotifier(cfg, a.logger)
	if err != nil {
		return err
	}

	pages, closePages := buildPageFetcher(cfg, a.logger)
	defer closePages()

	runner := pipeline.NewRunner(pipeline.RunnerConfig{
		Profile: profile,
		Collector: feeds.NewAggregator(feeds.AggregatorConfig{
			HTTPClient: &http.Client{Timeout: httpTimeout},
			UserAgent:  cfg.UserAgent,
			Logger:     a.logger,
		}),
		Detector:  dedup.NewDetector(dedup.DetectorConfig{Store: handle.store, Logger: a.logger}),
		Augmenter: buildAugmenter(cfg, judge, pages, profile.SearchTopic, a.logger),
		Generator: generate.NewGenerator(generate.GeneratorConfig{
			LLM:     writer,
			Logger:  a.logger,
			Timeout: cfg.LLM.Timeout,
			Label:   cfg.LLM.Provider + "/" + cfg.LLM.Model,
		}),
		Classifier: classify.NewClassifier(classify.ClassifierConfig{
			LLM:      judge,
			Logger:   a.logger,
			Question: profile.Question,
			Timeout:  cfg.Classifier.Timeout,
		}),
		Persister: content.NewPersister(content.PersisterConfig{Store: handle.store, Logger: a.logger}),
		Notifier:  notifier,
		Pages:     pages,
		SiteURL:   cfg.SiteURL,
		ItemDelay: cfg.ItemDelay,
		Progress:  out(cmd),
		Logger:    a.logger,
	})

	summary, err := runner.Run(ctx, pipeline.Options{
		Count:      opts.count,
		UrgentOnly: opts.urgentOnly,
		DryRun:     opts.dryRun,
		Link:       opts.link,
		Prompt:     opts.prompt,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out(cmd), summary.String())

	a.pushMetrics(cfg, "autopost_generate", map[string]string{"pipeline": profile.Name})
	return nil
}
