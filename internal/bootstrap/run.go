package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 10 * time.Second

// RunConfig contains dependencies for running the web server until shutdown.
type RunConfig struct {
	Server *http.Server
	// Services is optional; its dev backend server, when present, runs alongside.
	Services        *ServiceContainer
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
	// Cancel ends the server's BaseContext so open live tabs close before Shutdown waits.
	Cancel context.CancelFunc
}

// RunWithShutdown serves until ctx is cancelled, SIGINT/SIGTERM arrives, or a
// server fails, then shuts everything down gracefully.
func RunWithShutdown(ctx context.Context, cfg *RunConfig) error {
	if cfg == nil || cfg.Server == nil {
		return errors.New("run config with server is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", cfg.Server.Addr)
		if err := cfg.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if svc := cfg.Services; svc != nil && svc.DevServer != nil && svc.DevListener != nil {
		g.Go(func() error {
			if err := svc.DevServer.Serve(svc.DevListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("dev backend: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		if cfg.Cancel != nil {
			cfg.Cancel()
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		err := cfg.Server.Shutdown(shutdownCtx)
		if svc := cfg.Services; svc != nil && svc.DevServer != nil {
			err = errors.Join(err, svc.DevServer.Shutdown(shutdownCtx))
		}
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
