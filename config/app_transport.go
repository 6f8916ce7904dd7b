package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/transport"
	"github.com/akeren/waitlist-foundry/pkg/circuitbreaker"
	"github.com/akeren/waitlist-foundry/pkg/retry"
	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// TransportConfig selects the backing stores for the row log. With none of
// the GOOGLE_* options set and no database, the services run in mock mode.
type TransportConfig struct {
	ScriptURL           string        `env:"GOOGLE_SCRIPT_URL"`
	SheetID             string        `env:"GOOGLE_SHEET_ID"`
	ServiceAccountEmail string        `env:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
	PrivateKey          string        `env:"GOOGLE_PRIVATE_KEY"`
	SheetTab            string        `env:"GOOGLE_SHEET_TAB" envDefault:"Sheet1"`
	Timeout             time.Duration `env:"TRANSPORT_TIMEOUT" envDefault:"10s"`
	RetryAttempts       int           `env:"TRANSPORT_RETRY_ATTEMPTS" envDefault:"1"`
	BreakerThreshold    int           `env:"TRANSPORT_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown     time.Duration `env:"TRANSPORT_BREAKER_COOLDOWN" envDefault:"30s"`
}

func LoadTransportConfig() (*TransportConfig, error) {
	var cfg TransportConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse transport env: %w", err)
	}

	cfg.ScriptURL = sanitizeEnv(cfg.ScriptURL)
	cfg.SheetID = sanitizeEnv(cfg.SheetID)
	cfg.ServiceAccountEmail = sanitizeEnv(cfg.ServiceAccountEmail)
	cfg.PrivateKey = sanitizeEnv(cfg.PrivateKey)

	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.BreakerThreshold < 1 {
		cfg.BreakerThreshold = 1
	}

	return &cfg, nil
}

func (c *TransportConfig) ScriptEnabled() bool {
	return c.ScriptURL != ""
}

func (c *TransportConfig) SheetsEnabled() bool {
	return c.SheetID != ""
}

func (c *TransportConfig) sheetsConfig() transport.SheetsConfig {
	return transport.SheetsConfig{
		SpreadsheetID:       c.SheetID,
		Tab:                 c.SheetTab,
		ServiceAccountEmail: c.ServiceAccountEmail,
		PrivateKey:          c.PrivateKey,
	}
}

// NewTransportChain builds the providers in priority order: script, then
// sheets. A database becomes a write-only mirror; it neither satisfies a
// write nor lifts mock mode. A nil db or registry simply leaves that part out.
func NewTransportChain(logger *log.Logger, cfg *TransportConfig, db *gorm.DB, reg prometheus.Registerer) *transport.Chain {
	var providers []transport.Provider
	var mirror transport.Provider

	if cfg.ScriptEnabled() {
		providers = append(providers, transport.NewScriptProvider(cfg.ScriptURL, &http.Client{Timeout: cfg.Timeout}))
		logger.Info("Script transport enabled")
	}

	if cfg.SheetsEnabled() {
		providers = append(providers, newSheetsProvider(logger, cfg))
	}

	if db != nil {
		p, err := transport.NewDatabaseProvider(db)
		if err != nil {
			logger.Error("Database transport unavailable", "error", err)
		} else {
			mirror = p
			logger.Info("Database mirror enabled")
		}
	}

	chain := transport.NewChain(logger, providers,
		transport.WithMetrics(transport.NewMetrics(reg)),
		transport.WithMirror(mirror),
		transport.WithRetryConfig(&retry.Config{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    2 * time.Second,
			Multiplier:  2.0,
		}),
		transport.WithBreakerConfig(&circuitbreaker.Config{
			FailureThreshold: cfg.BreakerThreshold,
			RecoveryTimeout:  cfg.BreakerCooldown,
			SuccessThreshold: 1,
		}),
	)

	if !chain.Configured() {
		logger.Warn("No GOOGLE_* transport configured; waitlist and analytics run in mock mode")
	} else {
		logger.Info("Transport chain ready", "providers", chain.Names(), "mirrors", chain.MirrorNames())
	}

	return chain
}

func newSheetsProvider(logger *log.Logger, cfg *TransportConfig) transport.Provider {
	sheetsCfg := cfg.sheetsConfig()

	if !sheetsCfg.Credentials() {
		err := errors.New("sheets: GOOGLE_SERVICE_ACCOUNT_EMAIL and GOOGLE_PRIVATE_KEY are required with GOOGLE_SHEET_ID")
		logger.Error("Sheets transport misconfigured", "error", err)
		return transport.NewUnavailableProvider(transport.ProviderSheets, err)
	}

	// The token source outlives startup, so it must not use a request context.
	p, err := transport.NewSheetsProvider(context.Background(), sheetsCfg)
	if err != nil {
		logger.Error("Sheets transport unavailable", "error", err)
		return transport.NewUnavailableProvider(transport.ProviderSheets, err)
	}

	logger.Info("Sheets transport enabled", "tab", cfg.SheetTab)
	return p
}
