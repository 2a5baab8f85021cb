package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/eventdesk/config"
	"github.com/target/eventdesk/internal/adapters/backendapi"
	"github.com/target/eventdesk/internal/adapters/devbackend"
	"github.com/target/eventdesk/internal/adapters/memstore"
	redisstore "github.com/target/eventdesk/internal/adapters/redis"
	"github.com/target/eventdesk/internal/domain/route"
	httpx "github.com/target/eventdesk/internal/http"
	"github.com/target/eventdesk/internal/observability/statsd"
	"github.com/target/eventdesk/internal/ports"
)

// ServiceContainer holds the process-wide dependencies shared by every request and tab.
type ServiceContainer struct {
	Classifier *route.Classifier
	Handoff    ports.HandoffStore
	NewBackend httpx.BackendFactory
	// API serves /api/: a reverse proxy to the backend.
	API     http.Handler
	Metrics statsd.Sink
	// Ready reports whether shared infrastructure is reachable; nil without Redis.
	Ready func(context.Context) error

	// BackendURL is where per-tab clients and the API proxy send auth calls.
	BackendURL string

	// DevServer and DevListener are set when BACKEND_MODE=dev.
	DevServer   *http.Server
	DevListener net.Listener

	metricsClient *statsd.Client
}

// ServiceDeps contains dependencies for building services.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices builds the service container. Callers must Close it.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &ServiceContainer{
		Classifier: route.NewClassifier(cfg.Routes.Policy()),
		Handoff:    newHandoffStore(deps.RedisClient, cfg.Session, cfg.Redis, logger),
		BackendURL: cfg.Backend.URL,
	}
	if client := deps.RedisClient; client != nil {
		c.Ready = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	c.buildObservability(cfg.Observability, logger)

	if cfg.Backend.IsDev() {
		if err := c.startDevBackend(cfg, logger); err != nil {
			c.Close()
			return nil, err
		}
	}

	api, err := httpx.NewBackendProxy(c.BackendURL, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("backend proxy: %w", err)
	}
	c.API = api
	c.NewBackend = newBackendFactory(c.BackendURL, cfg, logger)
	return c, nil
}

// Close releases the metrics client and the dev backend listener.
// The listener may already be closed by the dev server's shutdown.
func (c *ServiceContainer) Close() {
	if c.metricsClient != nil {
		_ = c.metricsClient.Close()
	}
	if c.DevListener != nil {
		_ = c.DevListener.Close()
	}
}

func (c *ServiceContainer) buildObservability(cfg config.ObservabilityConfig, logger *slog.Logger) {
	if !cfg.Metrics.IsEnabled() {
		return
	}
	client, err := statsd.NewClient(statsd.Config{
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return
	}
	c.metricsClient = client
	c.Metrics = client
}

// startDevBackend serves the in-process auth backend on a loopback listener so
// tab clients and the API proxy reach it over HTTP exactly as they would the real one.
func (c *ServiceContainer) startDevBackend(cfg *config.AppConfig, logger *slog.Logger) error {
	users, err := devbackend.ParseUsers(cfg.DevBackend.Users)
	if err != nil {
		return fmt.Errorf("dev backend users: %w", err)
	}
	dev, err := devbackend.New(devbackend.Config{
		Users:      users,
		Secret:     []byte(cfg.DevBackend.Secret),
		TokenTTL:   cfg.DevBackend.TokenTTL,
		CookieName: cfg.Session.CookieName,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", cfg.DevBackend.Addr)
	if err != nil {
		return fmt.Errorf("dev backend listen: %w", err)
	}
	c.DevListener = ln
	c.DevServer = &http.Server{
		Handler:           dev.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	c.BackendURL = "http://" + ln.Addr().String()
	logger.Warn("dev backend enabled; do not use in production",
		"addr", ln.Addr().String(), "users", len(users))
	return nil
}

func newHandoffStore(
	client redis.UniversalClient,
	session config.SessionConfig,
	rcfg config.RedisConfig,
	logger *slog.Logger,
) ports.HandoffStore {
	if client == nil {
		logger.Info("using in-memory handoff store")
		return memstore.NewHandoffStore(session.HandoffTTL, time.Now)
	}
	return redisstore.NewHandoffStore(client, redisstore.HandoffStoreOptions{
		Prefix: rcfg.KeyPrefix,
		TTL:    session.HandoffTTL,
	})
}

func newBackendFactory(baseURL string, cfg *config.AppConfig, logger *slog.Logger) httpx.BackendFactory {
	return func(token string) (httpx.TabBackend, error) {
		client, err := backendapi.NewClient(backendapi.Config{
			BaseURL:    baseURL,
			CookieName: cfg.Session.CookieName,
			Token:      token,
			Timeout:    cfg.Backend.Timeout,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
