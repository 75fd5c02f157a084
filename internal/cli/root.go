// Package cli wires configuration, stores and pipeline components into the
// autopost commands.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	appconfig "portfolio/internal/config"
	"portfolio/pkg/config"
	"portfolio/pkg/logging"
	"portfolio/pkg/monitoring"
)

// Exit codes returned by ExitCode.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitMissingCredential = 2
)

const pushTimeout = 10 * time.Second

// app carries what every command shares. Tests replace loadConfig.
type app struct {
	logger     logging.Logger
	loadConfig func() appconfig.Config
	loadEnv    bool
}

// NewRootCmd returns the root command for autopost.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{
		logger:     logging.NewLoggerWithService("autopost"),
		loadConfig: appconfig.LoadConfig,
		loadEnv:    true,
	})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "autopost",
		Short:         "Automated drafts for the portfolio blog",
		Long:          "autopost turns feed items into blog drafts, asks a moderator to approve them and publishes what nobody rejected.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.loadEnv {
				config.LoadEnv(a.logger)
				a.logger.SetLevel(config.GetLogLevel())
			}
		},
	}

	rootCmd.AddCommand(newGenerateCmd(a))
	rootCmd.AddCommand(newSweepCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, appconfig.ErrMissingCredential):
		return ExitMissingCredential
	default:
		return ExitFailure
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// pushMetrics exports the run's metrics when a Pushgateway is configured.
// Failures are logged only.
func (a *app) pushMetrics(cfg appconfig.Config, job string, grouping map[string]string) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := monitoring.PushMetrics(ctx, cfg.PushgatewayURL, job, grouping, nil); err != nil {
		a.logger.WithError(err).Warn("Failed to push metrics")
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
