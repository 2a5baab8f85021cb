package httpx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"time"

	eventdesk "github.com/target/eventdesk"
	domainauth "github.com/target/eventdesk/internal/domain/auth"
	"github.com/target/eventdesk/internal/domain/route"
	"github.com/target/eventdesk/internal/observability/statsd"
	"github.com/target/eventdesk/internal/ports"
)

// LivePath is where page shells open their websocket.
const LivePath = "/live"

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	// Classifier is shared by the edge guard and every live tab.
	Classifier *route.Classifier
	Landing    domainauth.LandingPolicy
	SignInPath string
	Countdown  int
	Clock      ports.Clock

	Handoff    ports.HandoffStore
	NewBackend BackendFactory
	// API serves /api/: a proxy to the REST backend or the in-process dev backend.
	API http.Handler

	CookieName   string
	CookieDomain string
	CookieTTL    time.Duration

	WriteTimeout time.Duration
	BaseContext  context.Context

	// Ready backs /healthz when set (e.g. a Redis ping).
	Ready func(context.Context) error

	IsDev   bool // Development mode: templates and static files from disk
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// NewRouter creates the HTTP router. The edge guard runs in front of every route.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Classifier == nil {
		return nil, errors.New("router: classifier is required")
	}
	if services.Handoff == nil || services.NewBackend == nil {
		return nil, errors.New("router: handoff store and backend factory are required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	signIn := services.SignInPath
	if signIn == "" {
		signIn = domainauth.DefaultSignInPath
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services.IsDev, logger),
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}

	mux := http.NewServeMux()

	health := healthHandler(services.Ready)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /static/", staticHandler(services.IsDev, logger))
	mux.Handle("GET /favicon.ico", http.NotFoundHandler())

	sessions := &SessionHandlers{
		Handoff:      services.Handoff,
		CookieName:   services.CookieName,
		CookieDomain: services.CookieDomain,
		CookieTTL:    services.CookieTTL,
		Logger:       logger,
	}
	csrf := CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain, Logger: logger})
	mux.Handle("POST /auth/session", csrf(http.HandlerFunc(sessions.Redeem)))
	mux.Handle("DELETE /auth/session", csrf(http.HandlerFunc(sessions.Clear)))
	mux.HandleFunc("/auth/session", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	mux.Handle("GET "+LivePath, &LiveHandler{
		NewBackend:   services.NewBackend,
		Handoff:      services.Handoff,
		Classifier:   services.Classifier,
		Landing:      services.Landing,
		SignInPath:   signIn,
		Countdown:    services.Countdown,
		Clock:        services.Clock,
		Renderer:     tr,
		CookieName:   services.CookieName,
		WriteTimeout: services.WriteTimeout,
		BaseContext:  services.BaseContext,
		Metrics:      services.Metrics,
		Logger:       logger,
	})

	if services.API != nil {
		mux.Handle("/api/", services.API)
	}

	pages := &PageHandlers{T: tr, LiveURL: LivePath, SignInPath: signIn, Logger: logger}
	// The shell hands out the CSRF cookie live.js echoes to /auth/session.
	shell := csrf(http.HandlerFunc(pages.Shell))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if isUnsafeMethod(r.Method) {
			pages.Shell(w, r)
			return
		}
		shell.ServeHTTP(w, r)
	})

	guard := EdgeGuard(EdgeGuardConfig{
		Classifier: services.Classifier,
		CookieName: services.CookieName,
		SignInPath: signIn,
		RootPath:   services.Landing.RootPath,
		Metrics:    services.Metrics,
		Logger:     logger,
	})
	return guard(mux), nil
}

func templateFS(isDev bool, logger *slog.Logger) fs.FS {
	if isDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(eventdesk.TemplateFS, "frontend/templates")
	if err != nil {
		logger.Warn("failed to open embedded templates; falling back to disk", "error", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// staticHandler serves /static/* assets.
// In dev mode (isDev=true), serves from disk for hot reloading.
// In production mode (isDev=false), serves from embedded FS.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))))
	}
	staticSub, err := fs.Sub(eventdesk.StaticFS, "frontend/static")
	if err != nil {
		logger.Warn("failed to create sub-filesystem for static assets", "error", err)
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))))
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
}

//nolint:gochecknoglobals // compiled once
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders wraps a static file handler to add appropriate cache headers.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}
