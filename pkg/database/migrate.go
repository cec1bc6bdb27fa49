package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/SscSPs/bookkeeping_ledger/migrations"
	migrate "github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// Direction selects which way MigrateDB moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Storage drivers understood by MigrateDB.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// MigratePostgres applies the embedded postgres migrations using a temporary database/sql
// connection through the pgx stdlib driver.
func MigratePostgres(databaseURL string, dir Direction, logger zerolog.Logger) error {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("Error closing migration DB connection")
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}
	return run(migrations.Postgres, "postgres", DriverPostgres, driver, dir, logger)
}

// MigrateSQLite applies the embedded sqlite migrations to db.
func MigrateSQLite(db *sql.DB, dir Direction, logger zerolog.Logger) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite driver instance for migrations: %w", err)
	}
	return run(migrations.SQLite, "sqlite", DriverSQLite, driver, dir, logger)
}

func run(fsys fs.FS, path, name string, driver migratedb.Driver, dir Direction, logger zerolog.Logger) error {
	source, err := iofs.New(fsys, path)
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, name, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	logger.Info().Str("driver", name).Str("direction", string(dir)).Msg("Running database migrations")
	switch dir {
	case Down:
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info().Msg("No new migrations to apply")
	} else {
		version, dirty, verr := m.Version()
		if verr == nil {
			logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("Database migrations applied")
		}
	}
	return nil
}
