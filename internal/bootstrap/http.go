package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/target/eventdesk/config"
	httpx "github.com/target/eventdesk/internal/http"
	"github.com/target/eventdesk/internal/ports"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
	// BaseContext is cancelled on shutdown; open live tabs end with it.
	BaseContext context.Context
}

// NewHTTPServer builds the HTTP server without starting it.
func NewHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return nil, errors.New("http server config, app config and services are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	baseCtx := cfg.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	handler, err := buildHTTPHandler(httpHandlerConfig{
		Logger: logger,
		HTTP:   appCfg.HTTP,
		Services: httpx.RouterServices{
			Classifier:   cfg.Services.Classifier,
			Landing:      appCfg.Session.Landing(),
			SignInPath:   appCfg.Session.SignInPath,
			Countdown:    appCfg.Session.CountdownSeconds,
			Clock:        ports.SystemClock{},
			Handoff:      cfg.Services.Handoff,
			NewBackend:   cfg.Services.NewBackend,
			API:          cfg.Services.API,
			CookieName:   appCfg.Session.CookieName,
			CookieDomain: appCfg.HTTP.CookieDomain,
			CookieTTL:    appCfg.Session.CookieTTL,
			WriteTimeout: appCfg.HTTP.LiveWriteTimeout,
			BaseContext:  baseCtx,
			Ready:        cfg.Services.Ready,
			IsDev:        appCfg.IsDev,
			Metrics:      cfg.Services.Metrics,
			Logger:       logger,
		},
	})
	if err != nil {
		return nil, err
	}

	// No WriteTimeout: /live connections are long-lived; frame writes carry their own deadline.
	return &http.Server{
		Addr:              appCfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return baseCtx },
	}, nil
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
	HTTP     config.HTTPConfig
}

func buildHTTPHandler(cfg httpHandlerConfig) (http.Handler, error) {
	router, err := httpx.NewRouter(cfg.Services)
	if err != nil {
		return nil, err
	}

	// Apply compression middleware first (innermost) so logging captures compressed sizes
	// Order: Recover -> Logging -> Compression -> EdgeGuard -> Router
	h := router
	if cfg.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel, Logger: cfg.Logger})(h)
	}

	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)

	return h, nil
}
