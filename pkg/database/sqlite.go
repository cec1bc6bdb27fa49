package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLiteDriverName is the database/sql driver registered by go-sqlite3.
const SQLiteDriverName = "sqlite3"

// SQLiteDSN builds a DSN for path with foreign keys enforced and write transactions taking
// the database lock at BEGIN, so two posting units never interleave.
func SQLiteDSN(path string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_txlock", "immediate")
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + params.Encode()
}

// OpenSQLite opens and pings a SQLite database at path.
func OpenSQLite(ctx context.Context, path string, logger zerolog.Logger) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	db, err := sql.Open(SQLiteDriverName, SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	logger.Info().Str("path", path).Msg("Opened SQLite database")
	return db, nil
}
