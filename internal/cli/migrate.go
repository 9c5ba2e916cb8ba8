package cli

import (
	"dreamforge/internal/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  "Run schema migrations for users, skills, jobs, check-ins and interview sessions against the configured database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := getConfigFromContext(ctx)
		logger := getLoggerFromContext(ctx)

		db, err := store.Open(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close(db) }()

		if err := store.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("Database schema is up to date", "driver", cfg.Database.Driver)
		return nil
	},
}
