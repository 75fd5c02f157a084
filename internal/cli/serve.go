package cli

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"portfolio/internal/approval"
	"portfolio/internal/config"
	"portfolio/pkg/logging"
	"portfolio/pkg/monitoring"
	"portfolio/pkg/server"
	"portfolio/pkg/version"
)

func newServeCmd(a *app) *cobra.Command {
	var sweepEvery time.Duration
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive moderator decisions from the Telegram webhook",
		Long: `serve answers POST /webhooks/telegram, /health and /metrics.
With --sweep-interval it also runs the approval sweep in-process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.loadConfig()
			if err := cfg.Validate(config.CommandServe); err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			handle, err := openStore(ctx, cfg, a.logger)
			if err != nil {
				return err
			}
			defer handle.close()

			_, tg, err := buildNotifier(cfg, a.logger)
			if err != nil {
				return err
			}

			limits, err := buildLimiter(ctx, cfg, a.logger)
			if err != nil {
				return err
			}
			defer limits.close()

			machine := approval.NewMachine(approval.MachineConfig{Store: handle.store, Logger: a.logger})
			webhook := approval.NewWebhookHandler(approval.WebhookConfig{
				Machine:   machine,
				Store:     handle.store,
				Responder: tg,
				Secret:    cfg.TelegramWebhookSecret,
				ChatID:    cfg.TelegramChatID,
				Limiter:   limits.limiter,
				Logger:    a.logger,
			})

			healthChecker := monitoring.NewHealthChecker("autopost", version.Version)
			healthChecker.AddCheck("store", handle.health)
			if limits.health != nil {
				healthChecker.AddCheck("redis", limits.health)
			}
			healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
				"TELEGRAM_BOT_TOKEN":      cfg.TelegramToken,
				"TELEGRAM_CHAT_ID":        strconv.FormatInt(cfg.TelegramChatID, 10),
				"TELEGRAM_WEBHOOK_SECRET": cfg.TelegramWebhookSecret,
				"SITE_URL":                cfg.SiteURL,
			}))
			metricsCollector := monitoring.NewMetricsCollector("autopost", version.Version, nil)

			router := server.SetupServiceRouter(a.logger, "autopost", healthChecker, metricsCollector)
			webhook.Register(router)

			serverCfg := server.DefaultConfig("autopost", cfg.Port)
			if port != "" {
				serverCfg.Port = port
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Start(gctx, serverCfg, router, a.logger)
			})
			if sweepEvery > 0 {
				sweeper := approval.NewSweeper(approval.SweeperConfig{
					Machine:   machine,
					Store:     handle.store,
					Announcer: tg,
					Grace:     cfg.ApprovalGrace,
					Logger:    a.logger,
				})
				g.Go(func() error {
					runSweepLoop(gctx, sweeper, sweepEvery, a.logger)
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default from PORT)")
	cmd.Flags().DurationVar(&sweepEvery, "sweep-interval", 0, "run the approval sweep this often (0 disables)")
	return cmd
}

// runSweepLoop sweeps immediately and then every interval until ctx ends.
func runSweepLoop(ctx context.Context, sweeper *approval.Sweeper, interval time.Duration, logger logging.Logger) {
	sweepOnce(ctx, sweeper, logger)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, sweeper, logger)
		}
	}
}

func sweepOnce(ctx context.Context, sweeper *approval.Sweeper, logger logging.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Approval sweep panic")
		}
	}()
	if _, err := sweeper.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Warn("Approval sweep failed")
	}
}

