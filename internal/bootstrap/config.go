package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/target/eventdesk/config"
)

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig rejects combinations the server cannot start with.
func ValidateConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.Backend.IsDev() {
		if !cfg.IsDev {
			return errors.New("BACKEND_MODE=dev requires DEV=true")
		}
		if len(cfg.DevBackend.Users) == 0 {
			return errors.New("BACKEND_MODE=dev requires DEV_BACKEND_USERS")
		}
		if len(cfg.DevBackend.Secret) < 16 {
			return errors.New("DEV_BACKEND_SECRET must be at least 16 bytes")
		}
		return nil
	}
	if cfg.Backend.URL == "" {
		return errors.New("BACKEND_URL is required")
	}
	return nil
}
