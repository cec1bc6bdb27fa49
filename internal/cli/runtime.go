package cli

import (
	"context"

	"github.com/SscSPs/bookkeeping_ledger/internal/adapters/audit/redisstream"
	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_ledger/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/services"
	"github.com/SscSPs/bookkeeping_ledger/internal/handlers"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/config"
	"github.com/SscSPs/bookkeeping_ledger/internal/platform/metrics"
	"github.com/SscSPs/bookkeeping_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/bookkeeping_ledger/internal/repositories/database/sqlite"
	"github.com/SscSPs/bookkeeping_ledger/pkg/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// runtime is the wired engine for one command invocation.
type runtime struct {
	services *portssvc.ServiceContainer
	audit    portsrepo.AuditReader
	registry *prometheus.Registry
	health   handlers.HealthCheck
	closers  []func() error
}

func openRuntime(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*runtime, error) {
	rt := &runtime{registry: prometheus.NewRegistry()}

	var repos portsrepo.RepositoryProvider
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to open sqlite store")
		}
		if cfg.AutoMigrate {
			if err := database.MigrateSQLite(db, database.Up, logger); err != nil {
				_ = db.Close()
				return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to migrate sqlite store")
			}
		}
		repos = sqlite.NewRepositoryProvider(db)
		rt.health = db.PingContext
	case config.DriverPostgres:
		if cfg.AutoMigrate {
			if err := database.MigratePostgres(cfg.DatabaseURL, database.Up, logger); err != nil {
				return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to migrate postgres store")
			}
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to open postgres store")
		}
		repos = pgsql.NewRepositoryProvider(pool)
		repos.Close = func() error {
			database.ClosePgxPool(pool, logger)
			return nil
		}
		rt.health = pool.Ping
	default:
		return nil, apperrors.Newf(apperrors.KindValidation, "unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	rt.closers = append(rt.closers, repos.Close)

	if cfg.AuditSink == config.AuditSinkRedis {
		sink, client, err := redisstream.Connect(ctx, cfg.RedisURL, cfg.AuditStream)
		if err != nil {
			return nil, multierr.Append(apperrors.Wrap(apperrors.KindPersistence, err, "failed to open audit stream"), rt.Close())
		}
		repos.AuditRepo = sink
		rt.closers = append(rt.closers, client.Close)
	}
	if reader, ok := repos.AuditRepo.(portsrepo.AuditReader); ok {
		rt.audit = reader
	}

	rt.services = services.NewServiceContainer(cfg, repos, metrics.NewLedgerMetrics(rt.registry))
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() error {
	var err error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, rt.closers[i]())
	}
	rt.closers = nil
	return err
}
