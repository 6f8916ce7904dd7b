package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey = "APP_ENV"
	// EnvFilesKey overrides the dotenv files to load, comma separated.
	EnvFilesKey = "ENV_FILES"
)

// DefaultEnvFiles are loaded in order. godotenv never overrides a variable
// that is already set, so earlier files win over later ones and the process
// environment wins over both.
var DefaultEnvFiles = []string{".env.local", ".env"}

func InitializeEnvFile(logger *log.Logger) {
	if os.Getenv("SKIP_DOTENV") == "true" {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	loaded := LoadEnvFiles(logger, envFiles()...)
	if len(loaded) == 0 {
		logger.Info("No .env file found; using process environment only")
		return
	}

	logger.Info("Environment variables loaded", "files", loaded)
}

func envFiles() []string {
	raw := strings.TrimSpace(os.Getenv(EnvFilesKey))
	if raw == "" {
		return DefaultEnvFiles
	}

	var files []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

// LoadEnvFiles loads every file that exists and returns the ones loaded.
// Missing files are skipped; unreadable or malformed ones are logged.
func LoadEnvFiles(logger *log.Logger, files ...string) []string {
	var loaded []string

	for _, f := range files {
		err := godotenv.Load(f)
		switch {
		case err == nil:
			loaded = append(loaded, f)
		case errors.Is(err, fs.ErrNotExist):
		default:
			logger.Warn("Failed to load env file", "file", f, "error", err.Error())
		}
	}

	return loaded
}

func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

func IsProductionEnv(appEnv string) bool {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))

	switch env {
	case "", "dev", "development", "local", "test", "testing":
		return nil
	default:
		return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, env)
	}
}
