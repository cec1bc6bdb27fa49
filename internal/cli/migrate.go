package cli

import (
	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/config"
	"github.com/SscSPs/bookkeeping_ledger/pkg/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the ledger schema",
	}
	cmd.AddCommand(
		newMigrateDirectionCmd(app, "up", "Apply all pending migrations", database.Up),
		newMigrateDirectionCmd(app, "down", "Roll back all migrations", database.Down),
	)
	return cmd
}

func newMigrateDirectionCmd(app *App, use, short string, dir database.Direction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrations(cmd, app, dir); err != nil {
				return apperrors.Wrap(apperrors.KindPersistence, err, "migration failed")
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"migrate": use, "driver": app.cfg.DBDriver})
		},
	}
}

func runMigrations(cmd *cobra.Command, app *App, dir database.Direction) error {
	logger := *app.logger
	switch app.cfg.DBDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cmd.Context(), app.cfg.SQLitePath, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		return database.MigrateSQLite(db, dir, logger)
	case config.DriverPostgres:
		return database.MigratePostgres(app.cfg.DatabaseURL, dir, logger)
	default:
		return apperrors.Newf(apperrors.KindValidation, "unsupported DB_DRIVER %q", app.cfg.DBDriver)
	}
}
