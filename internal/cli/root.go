// Package cli implements ledgerctl, the host process for the ledger engine.
package cli

import (
	"context"
	"os"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/config"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// App holds what every command needs once flags are parsed.
type App struct {
	cfg        *config.Config
	logger     *zerolog.Logger
	loadConfig func() (*config.Config, error)
}

// Option configures the root command.
type Option func(*App)

// WithConfig skips environment loading and uses cfg as is.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) { a.cfg = cfg }
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *App) { a.logger = &logger }
}

// NewRootCommand builds the ledgerctl command tree.
func NewRootCommand(options ...Option) *cobra.Command {
	app := &App{loadConfig: config.LoadConfig}
	for _, opt := range options {
		opt(app)
	}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Post, void and period-lock entries in the bookkeeping ledger",
		Long: `ledgerctl drives the ledger engine against the configured store.

Configuration comes from the environment or a .env file:
  DB_DRIVER (postgres|sqlite), PGSQL_URL, SQLITE_PATH, AUTO_MIGRATE,
  DEFAULT_CURRENCY, LOG_LEVEL, LOG_FORMAT, AUDIT_SINK (database|redis),
  REDIS_URL, AUDIT_STREAM, OPS_PORT.

Results are printed as JSON on stdout; failures print their kind and message.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperrors.Wrap(apperrors.KindValidation, err, "invalid flags")
	})

	cmd.AddCommand(
		newMigrateCmd(app),
		newPostCmd(app),
		newVoidCmd(app),
		newTxnCmd(app),
		newPeriodCmd(app),
		newAuditCmd(app),
		newServeCmd(app),
	)
	return cmd
}

// Execute runs ledgerctl and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		WriteError(cmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func (a *App) init() error {
	if a.cfg == nil {
		cfg, err := a.loadConfig()
		if err != nil {
			return apperrors.Wrap(apperrors.KindValidation, err, "invalid configuration")
		}
		a.cfg = cfg
	}
	if a.logger == nil {
		logger := logging.New(logging.Options{
			ServiceName: "ledgerctl",
			Level:       a.cfg.LogLevel,
			Format:      a.cfg.LogFormat,
			Output:      os.Stderr,
		})
		a.logger = &logger
	}
	return nil
}

// withRuntime opens the store for the duration of fn.
func (a *App) withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) (err error) {
	ctx := logging.WithContext(cmd.Context(), *a.logger)
	rt, err := openRuntime(ctx, a.cfg, *a.logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, rt.Close())
	}()
	return fn(ctx, rt)
}
