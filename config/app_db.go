package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrDatabaseNotConfigured is returned by NewDatabase when no connection
// settings are present. The database is optional.
var ErrDatabaseNotConfigured = errors.New("database is not configured")

type DBConfig struct {
	Driver          string
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string
}

// NewDBConfigFromEnv reads APP_DATABASE_DRIVER, APP_DATABASE_URL, SQLITE_PATH
// and the POSTGRES_* variables. An empty DSN means no database.
func NewDBConfigFromEnv(logger *log.Logger) (*DBConfig, error) {
	cfg := &DBConfig{
		Driver:          strings.ToLower(sanitizeEnv(GetValueFromEnvironmentVariable("APP_DATABASE_DRIVER", DriverPostgres))),
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Minute,
		SSLMode:         "require",
	}

	switch cfg.Driver {
	case DriverSQLite:
		cfg.DSN = sanitizeEnv(GetValueFromEnvironmentVariable("SQLITE_PATH", "waitlist.db"))
		// sqlite allows a single writer.
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		return cfg, nil
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported APP_DATABASE_DRIVER %q (allowed: postgres, sqlite)", cfg.Driver)
	}

	if url := sanitizeEnv(GetValueFromEnvironmentVariable("APP_DATABASE_URL", "")); url != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
		cfg.DSN = url
		return cfg, nil
	}

	dsn, err := buildPostgresDSN(logger, cfg.SSLMode)
	if err != nil {
		return nil, err
	}
	cfg.DSN = dsn

	return cfg, nil
}

func (c *DBConfig) IsConfigured() bool {
	return c != nil && c.DSN != ""
}

func (c *DBConfig) dialector() gorm.Dialector {
	if c.Driver == DriverSQLite {
		return sqlite.Open(c.DSN)
	}
	return postgres.Open(c.DSN)
}

func buildPostgresDSN(logger *log.Logger, defaultSSL string) (string, error) {
	host, portStr, user, pass, dbName, ssl := getDatabaseEnvParams()
	if host == "" {
		return "", nil
	}
	if ssl == "" {
		ssl = defaultSSL
	}

	var missing []string
	if portStr == "" {
		missing = append(missing, "POSTGRES_PORT")
	}
	if user == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if dbName == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}
	if len(missing) > 0 {
		logger.Error("Missing required database environment variables", "missing_vars", strings.Join(missing, ", "))
		return "", fmt.Errorf("missing required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", portStr, err)
	}

	logger.Info("Connecting to database",
		"host", host,
		"port", port,
		"user", user,
		"dbname", dbName,
		"sslmode", ssl,
	)

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, dbName, ssl,
	), nil
}

func getDatabaseEnvParams() (host, port, user, pass, dbName, ssl string) {
	host = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_HOST", ""))
	port = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_PORT", ""))
	user = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_USER", ""))
	pass = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_PASSWORD", ""))
	dbName = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_DB_NAME", ""))
	ssl = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_SSLMODE", ""))

	return host, port, user, pass, dbName, ssl
}

// sanitizeEnv trims whitespace and one pair of surrounding quotes.
func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if !cfg.IsConfigured() {
		return nil, ErrDatabaseNotConfigured
	}

	gdb, err := gorm.Open(cfg.dialector(), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Error("Failed to connect to database", "driver", cfg.Driver, "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		logger.Error("Database ping failed", "error", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully", "driver", cfg.Driver)
	return gdb, nil
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}
