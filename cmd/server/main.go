package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/akeren/waitlist-foundry/config"
	"github.com/akeren/waitlist-foundry/domain"
	"github.com/akeren/waitlist-foundry/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := log.NewLoggerWithJSONOutput()

	appConfig, err := config.LoadApplicationConfiguration(logger, wantsAutoMigrate(os.Args[1:]))
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		os.Exit(1)
	}

	domain.SetupCoreDomain(appConfig)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err)
			appConfig.Cleanup()
			os.Exit(1)
		}
		appConfig.Cleanup()
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining in-flight requests", "timeout", shutdownTimeout.String())
		shutdown(appConfig)
	}
}

func wantsAutoMigrate(args []string) bool {
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "--auto-migrate", "-m":
			return true
		}
	}
	return false
}

func shutdown(appConfig *config.ApplicationConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := appConfig.RouterService.Shutdown(ctx); err != nil {
		appConfig.Logger.Error("HTTP server shutdown error", "error", err)
	} else {
		appConfig.Logger.Info("HTTP server shut down gracefully")
	}

	appConfig.Cleanup()
	appConfig.Logger.Info("Graceful shutdown completed")
}
