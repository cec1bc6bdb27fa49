package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported audit sinks.
const (
	AuditSinkDatabase = "database"
	AuditSinkRedis    = "redis"
)

// Config holds application configuration.
type Config struct {
	DBDriver        string
	DatabaseURL     string
	SQLitePath      string
	AutoMigrate     bool
	DefaultCurrency string
	LogLevel        string
	LogFormat       string
	AuditSink       string
	RedisURL        string
	AuditStream     string
	OpsPort         string
	IsProduction    bool
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("SQLITE_PATH", "ledger.db")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("DEFAULT_CURRENCY", "USD")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("AUDIT_SINK", AuditSinkDatabase)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("AUDIT_STREAM", "ledger:audit")
	v.SetDefault("OPS_PORT", "9090")
	v.SetDefault("IS_PRODUCTION", false)
	v.AutomaticEnv()

	cfg := &Config{
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:     v.GetString("PGSQL_URL"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
		AutoMigrate:     v.GetBool("AUTO_MIGRATE"),
		DefaultCurrency: strings.ToUpper(v.GetString("DEFAULT_CURRENCY")),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		AuditSink:       strings.ToLower(v.GetString("AUDIT_SINK")),
		RedisURL:        v.GetString("REDIS_URL"),
		AuditStream:     v.GetString("AUDIT_STREAM"),
		OpsPort:         v.GetString("OPS_PORT"),
		IsProduction:    v.GetBool("IS_PRODUCTION"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the process cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("PGSQL_URL must be set when DB_DRIVER=%s", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must be set when DB_DRIVER=%s", DriverSQLite)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.AuditSink {
	case AuditSinkDatabase:
	case AuditSinkRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set when AUDIT_SINK=%s", AuditSinkRedis)
		}
	default:
		return fmt.Errorf("unsupported AUDIT_SINK %q", c.AuditSink)
	}

	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be a three-letter code, got %q", c.DefaultCurrency)
	}
	return nil
}
