package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/eventdesk/internal/domain/route"
	"github.com/target/eventdesk/internal/observability/metrics"
	"github.com/target/eventdesk/internal/observability/statsd"
)

const (
	edgeActionPass     = "pass"
	edgeActionRedirect = "redirect"
)

// EdgeGuardConfig configures the request-time route guard.
type EdgeGuardConfig struct {
	// Classifier must be the same value handed to every live tab's gate.
	Classifier *route.Classifier
	CookieName string // default "jwt"
	SignInPath string // default "/sign-in"
	RootPath   string // default "/"
	Metrics    statsd.Sink
	Logger     *slog.Logger
}

// EdgeGuard returns a middleware that redirects before any page is served.
// It only checks whether the session cookie is present; token validity is the
// backend's call, made later by the tab's session manager.
//
//   - Protected path without a cookie: 303 to the sign-in page.
//   - AuthOnly path with a cookie: 303 to the application root.
//   - Anything else, and every exempt path, passes through unchanged.
func EdgeGuard(cfg EdgeGuardConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "jwt"
	}
	if cfg.SignInPath == "" {
		cfg.SignInPath = "/sign-in"
	}
	if cfg.RootPath == "" {
		cfg.RootPath = "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "edge_guard")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if route.Exempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			class := cfg.Classifier.Classify(r.URL.Path)
			hasToken := hasCookie(r, cfg.CookieName)

			target := ""
			switch {
			case class == route.Protected && !hasToken:
				target = cfg.SignInPath
			case class == route.AuthOnly && hasToken:
				target = cfg.RootPath
			}

			decision := metrics.EdgeDecision{Class: class.String(), Action: edgeActionPass, Token: hasToken}
			if target == "" {
				metrics.EmitEdgeDecision(cfg.Metrics, decision)
				next.ServeHTTP(w, r)
				return
			}

			decision.Action = edgeActionRedirect
			metrics.EmitEdgeDecision(cfg.Metrics, decision)
			logger.DebugContext(r.Context(), "edge redirect",
				slog.String("path", r.URL.Path),
				slog.String("class", class.String()),
				slog.String("to", target),
			)
			redirectTo(w, r, target)
		})
	}
}

func hasCookie(r *http.Request, name string) bool {
	ck, err := r.Cookie(name)
	return err == nil && ck.Value != ""
}

// redirectTo sends a browser to target. htmx requests get Hx-Redirect so the
// whole page navigates instead of swapping a redirect body into a fragment.
func redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
