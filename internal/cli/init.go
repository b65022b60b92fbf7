// Package cli holds the startup steps shared by the binaries.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"mayfinance/internal/config"
	applog "mayfinance/internal/log"
)

// LoadEnvFile loads .env when present. A missing file is normal in
// production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at level and makes it the slog
// default. An unknown level falls back to info.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	lvl, err := applog.ParseLevel(level)
	cfg.Level = lvl
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", applog.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig reads the environment and checks it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Fatal logs err and exits with status 1.
func Fatal(logger *applog.Logger, msg string, err error) {
	logger.Error(msg, applog.FieldError, err)
	os.Exit(1)
}
