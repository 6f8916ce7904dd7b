package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/akeren/waitlist-foundry/config"
	"github.com/akeren/waitlist-foundry/domain/analytics"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/pkg/migrations"
	"github.com/akeren/waitlist-foundry/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger)

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if err := runMigrations(logger, args[1:]); err != nil {
			logger.Error("Database migration failed", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("Database migrations completed")

	case "stats":
		if err := printStats(logger); err != nil {
			logger.Error("Failed to read analytics", "error", err.Error())
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// runMigrations applies pending migrations, or rolls back N steps with
// "migrate down N".
func runMigrations(logger *log.Logger, args []string) error {
	db, err := config.OpenOptionalDatabase(logger)
	if err != nil {
		return err
	}
	if db == nil {
		return config.ErrDatabaseNotConfigured
	}
	defer config.CloseDatabase(db, logger)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get SQL DB instance: %w", err)
	}

	cfg := migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", migrations.DefaultDir),
		Logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if len(args) > 0 && args[0] == "down" {
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid step count %q: %w", args[1], err)
			}
		}
		return migrations.Down(ctx, sqlDB, cfg, steps)
	}

	return migrations.Up(ctx, sqlDB, cfg)
}

// printStats writes the analytics summary as JSON to stdout.
func printStats(logger *log.Logger) error {
	transportCfg, err := config.LoadTransportConfig()
	if err != nil {
		return err
	}

	db, err := config.OpenOptionalDatabase(logger)
	if err != nil {
		return err
	}
	defer config.CloseDatabase(db, logger)

	chain := config.NewTransportChain(logger, transportCfg, db, prometheus.NewRegistry())
	svc := analytics.NewAnalyticsServiceFactory(chain, logger, nil).CreateService()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(svc.Summary(ctx))
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate          Apply pending database migrations and exit")
	fmt.Println("  migrate down [N] Roll back the last N migrations (default 1)")
	fmt.Println("  stats            Print signup, event and conversion totals as JSON")
}
