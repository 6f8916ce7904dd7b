package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	DefaultDir   = "migrations"
	DefaultTable = "schema_migrations"
)

type migrator interface {
	Up() error
	Steps(n int) error
	Close() (sourceErr error, databaseErr error)
}

var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
}

var migratorFactory = func(sourceURL string, driver database.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config points at a directory of golang-migrate files such as
// 000001_create_sheet_rows.up.sql.
type Config struct {
	Dir             string
	MigrationsTable string
	Logger          Logger
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Dir) == "" {
		c.Dir = DefaultDir
	}
	if strings.TrimSpace(c.MigrationsTable) == "" {
		c.MigrationsTable = DefaultTable
	}
	return c
}

func (c Config) info(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Info(msg, args...)
	}
}

func (c Config) warn(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	return run(ctx, db, cfg, "up", func(m migrator) error { return m.Up() })
}

// Down rolls back the given number of applied migrations.
func Down(ctx context.Context, db *sql.DB, cfg Config, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migrations: steps must be positive, got %d", steps)
	}
	return run(ctx, db, cfg, "down", func(m migrator) error { return m.Steps(-steps) })
}

func sourceURL(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrations: resolve dir: %w", err)
	}

	return (&url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absDir),
	}).String(), nil
}

func run(ctx context.Context, db *sql.DB, cfg Config, direction string, apply func(migrator) error) error {
	if db == nil {
		return fmt.Errorf("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg = cfg.withDefaults()

	src, err := sourceURL(cfg.Dir)
	if err != nil {
		return err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := migratorFactory(src, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var closeOnce sync.Once
	closeMigrator := func() {
		closeOnce.Do(func() {
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				cfg.warn("Migrations source close error", "error", srcErr)
			}
			if dbErr != nil {
				cfg.warn("Migrations db close error", "error", dbErr)
			}
		})
	}
	defer closeMigrator()

	cfg.info("Running SQL migrations", "direction", direction, "source", src, "table", cfg.MigrationsTable)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apply(m)
	}()

	select {
	case <-ctx.Done():
		// migrate has no context support; closing is the only interrupt.
		closeMigrator()
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, migrate.ErrNoChange) {
			cfg.info("No migrations to apply")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrations: %s: %w", direction, err)
		}
	}

	cfg.info("Migrations applied successfully", "direction", direction)
	return nil
}
