package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	infradb "streak-service/internal/infrastructure/db"
	"streak-service/internal/infrastructure/sqlite"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema for the configured storage driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config

			switch cfg.Storage.Driver {
			case "postgres":
				pool, err := infradb.NewPostgresPool(cmd.Context(), &cfg.Database)
				if err != nil {
					return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
				}
				defer pool.Close()
				if err := infradb.MigratePostgres(cmd.Context(), pool); err != nil {
					return err
				}
			case "sqlite":
				db, err := sqlite.Open(cfg.SQLite.Path)
				if err != nil {
					return err
				}
				defer db.Close()
			default:
				return fmt.Errorf("storage driver %q has no schema", cfg.Storage.Driver)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", cfg.Storage.Driver)
			return nil
		},
	}
}
