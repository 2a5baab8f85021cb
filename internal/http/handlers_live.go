package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	domainauth "github.com/target/eventdesk/internal/domain/auth"
	"github.com/target/eventdesk/internal/domain/route"
	"github.com/target/eventdesk/internal/live"
	"github.com/target/eventdesk/internal/observability/statsd"
	"github.com/target/eventdesk/internal/ports"
)

// TabBackend is a backend client scoped to one tab. It holds that tab's
// session token the way a browser cookie jar would.
type TabBackend interface {
	ports.AuthBackend
	Token() string
	ClearToken()
}

// BackendFactory builds a TabBackend seeded with the browser's session token ("" when absent).
type BackendFactory func(token string) (TabBackend, error)

// LiveHandler upgrades GET /live to a websocket and runs one live.Tab on it.
type LiveHandler struct {
	NewBackend BackendFactory
	Handoff    ports.HandoffStore
	Classifier *route.Classifier
	Landing    domainauth.LandingPolicy
	SignInPath string
	Countdown  int
	Clock      ports.Clock
	Renderer   live.Renderer
	CookieName string

	WriteTimeout time.Duration
	ReadLimit    int64
	// BaseContext ends every open tab when it is cancelled (server shutdown).
	BaseContext context.Context

	Metrics statsd.Sink
	Logger  *slog.Logger

	// Upgrader defaults to a same-origin upgrader.
	Upgrader *websocket.Upgrader
}

//nolint:gochecknoglobals // read-only default; nil CheckOrigin enforces same origin
var defaultUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 << 10,
	WriteBufferSize: 16 << 10,
}

func (h *LiveHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// ServeHTTP handles GET /live?path=<current route>.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := ""
	name := h.CookieName
	if name == "" {
		name = "jwt"
	}
	if ck, err := r.Cookie(name); err == nil {
		token = ck.Value
	}

	backend, err := h.NewBackend(token)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "create tab backend failed", "error", err)
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	upgrader := h.Upgrader
	if upgrader == nil {
		upgrader = &defaultUpgrader
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger().DebugContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	transport := live.NewWebSocketTransport(conn, h.WriteTimeout, h.ReadLimit)
	tab, err := live.NewTab(live.TabOptions{
		Backend:     backend,
		Tokens:      backend,
		Handoff:     h.Handoff,
		Classifier:  h.Classifier,
		Landing:     h.Landing,
		SignInPath:  h.SignInPath,
		Countdown:   h.Countdown,
		Clock:       h.Clock,
		Renderer:    h.Renderer,
		Transport:   transport,
		Metrics:     h.Metrics,
		Logger:      h.logger(),
		InitialPath: r.URL.Query().Get("path"),
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "create live tab failed", "error", err)
		_ = transport.Close()
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	if h.BaseContext != nil {
		stop := context.AfterFunc(h.BaseContext, cancel)
		defer stop()
	}

	if err := tab.Run(ctx); err != nil {
		h.logger().WarnContext(r.Context(), "live tab ended", "error", err)
	}
}
