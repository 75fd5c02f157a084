package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"portfolio/internal/config"
	"portfolio/pkg/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.loadConfig()
			if err := cfg.Validate(config.CommandMigrate); err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			db, err := database.Connect(ctx, cfg.Database, a.logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := database.Migrate(ctx, db, a.logger); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), "migrations applied")
			return nil
		},
	}
}
