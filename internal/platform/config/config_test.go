package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/ledger-test.db")
	t.Setenv("DEFAULT_CURRENCY", "eur")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/ledger-test.db", cfg.SQLitePath)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, AuditSinkDatabase, cfg.AuditSink)
	assert.Equal(t, "ledger:audit", cfg.AuditStream)
	assert.Equal(t, "9090", cfg.OpsPort)
}

func TestLoadConfigPostgresRequiresURL(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("PGSQL_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PGSQL_URL")
}

func TestValidate(t *testing.T) {
	valid := Config{DBDriver: DriverSQLite, SQLitePath: "x.db", AuditSink: AuditSinkDatabase, DefaultCurrency: "USD"}
	assert.NoError(t, valid.Validate())

	badDriver := valid
	badDriver.DBDriver = "mysql"
	assert.ErrorContains(t, badDriver.Validate(), "DB_DRIVER")

	badSink := valid
	badSink.AuditSink = "kafka"
	assert.ErrorContains(t, badSink.Validate(), "AUDIT_SINK")

	redisNoURL := valid
	redisNoURL.AuditSink = AuditSinkRedis
	assert.ErrorContains(t, redisNoURL.Validate(), "REDIS_URL")

	badCurrency := valid
	badCurrency.DefaultCurrency = "DOLLARS"
	assert.ErrorContains(t, badCurrency.Validate(), "DEFAULT_CURRENCY")
}
