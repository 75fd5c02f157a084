package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"portfolio/internal/approval"
	"portfolio/internal/config"
)

func newSweepCmd(a *app) *cobra.Command {
	var grace time.Duration
	var quiet bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Publish automated drafts nobody acted on within the grace period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.loadConfig()
			if err := cfg.Validate(config.CommandSweep); err != nil {
				return err
			}
			if !cmd.Flags().Changed("grace") {
				grace = cfg.ApprovalGrace
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			handle, err := openStore(ctx, cfg, a.logger)
			if err != nil {
				return err
			}
			defer handle.close()

			var announcer approval.Announcer
			if !quiet {
				notifier, _, err := buildNotifier(cfg, a.logger)
				if err != nil {
					return err
				}
				announcer = notifier
			}

			sweeper := approval.NewSweeper(approval.SweeperConfig{
				Machine:   approval.NewMachine(approval.MachineConfig{Store: handle.store, Logger: a.logger}),
				Store:     handle.store,
				Announcer: announcer,
				Grace:     grace,
				Logger:    a.logger,
			})
			res, err := sweeper.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "sweep: %d published, %d skipped, %d failed\n", len(res.Published), res.Skipped, res.Failed)
			for _, d := range res.Published {
				fmt.Fprintf(out(cmd), "  published %s (%s)\n", d.Title, d.ID)
			}

			a.pushMetrics(cfg, "autopost_sweep", nil)
			return nil
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", approval.DefaultGrace, "minimum draft age before auto-publishing (default from APPROVAL_GRACE)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "do not announce published drafts")
	return cmd
}
