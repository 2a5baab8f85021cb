package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/target/eventdesk/config"
	"github.com/target/eventdesk/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if err = bootstrap.ValidateConfig(&cfg); err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	redisClient, err := initRedis(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	defer services.Close()

	baseCtx, cancelTabs := context.WithCancel(ctx)
	defer cancelTabs()

	server, err := bootstrap.NewHTTPServer(&bootstrap.HTTPServerConfig{
		Config:      &cfg,
		Services:    services,
		Logger:      logger,
		BaseContext: baseCtx,
	})
	if err != nil {
		return fmt.Errorf("build http server: %w", err)
	}

	return bootstrap.RunWithShutdown(ctx, &bootstrap.RunConfig{
		Server:          server,
		Services:        services,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		Logger:          logger,
		Cancel:          cancelTabs,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting eventdesk web",
		"addr", cfg.HTTP.Addr,
		"dev", cfg.IsDev,
		"backend_mode", string(cfg.Backend.Mode),
		"backend_url", cfg.Backend.URL,
		"redis", cfg.Redis.Enabled(),
		"metrics", cfg.Observability.Metrics.IsEnabled())
}

// initRedis connects Redis when configured. A nil client selects the in-memory handoff store.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func initRedis(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	client, err := bootstrap.ConnectRedis(bootstrap.RedisConnConfig{RedisConfig: cfg.Redis, Logger: logger})
	if errors.Is(err, bootstrap.ErrRedisNotConfigured) {
		if !cfg.IsDev {
			logger.WarnContext(ctx, "redis not configured; token handoff only works with a single instance")
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
