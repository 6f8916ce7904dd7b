package config

import (
	"path/filepath"
	"testing"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearDatabaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_DATABASE_DRIVER",
		"APP_DATABASE_URL",
		"SQLITE_PATH",
		"POSTGRES_HOST",
		"POSTGRES_PORT",
		"POSTGRES_USER",
		"POSTGRES_PASSWORD",
		"POSTGRES_DB_NAME",
		"POSTGRES_SSLMODE",
	} {
		t.Setenv(key, "")
	}
}

func TestNewDBConfigFromEnv_NothingSetMeansNoDatabase(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("APP_DATABASE_DRIVER", "postgres")

	cfg, err := NewDBConfigFromEnv(log.NewLoggerWithJSONOutput())
	require.NoError(t, err)
	assert.False(t, cfg.IsConfigured())

	_, err = NewDatabase(log.NewLoggerWithJSONOutput(), cfg)
	assert.ErrorIs(t, err, ErrDatabaseNotConfigured)
}

func TestNewDBConfigFromEnv_PostgresParams(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("APP_DATABASE_DRIVER", "postgres")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "5432")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB_NAME", "waitlist")
	t.Setenv("POSTGRES_SSLMODE", "disable")

	cfg, err := NewDBConfigFromEnv(log.NewLoggerWithJSONOutput())
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=waitlist sslmode=disable", cfg.DSN)
}

func TestNewDBConfigFromEnv_PostgresMissingVars(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("APP_DATABASE_DRIVER", "postgres")
	t.Setenv("POSTGRES_HOST", "db")

	_, err := NewDBConfigFromEnv(log.NewLoggerWithJSONOutput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_PORT")
}

func TestNewDBConfigFromEnv_RejectsUnknownDriver(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("APP_DATABASE_DRIVER", "mysql")

	_, err := NewDBConfigFromEnv(log.NewLoggerWithJSONOutput())
	assert.Error(t, err)
}

func TestNewDatabase_SQLiteAutoMigrates(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("APP_DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "waitlist.db"))

	logger := log.NewLoggerWithJSONOutput()
	cfg, err := NewDBConfigFromEnv(logger)
	require.NoError(t, err)
	require.True(t, cfg.IsConfigured())

	db, err := NewDatabase(logger, cfg)
	require.NoError(t, err)
	defer CloseDatabase(db, logger)

	require.NoError(t, AutoMigrate(logger, db, models.ModelRegistry...))
	assert.True(t, db.Migrator().HasTable(&models.SheetRow{}))
}
