package httpx

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultCSRFCookieName is the cookie the page shell receives and live.js echoes back.
	DefaultCSRFCookieName = "csrf_token"
	// DefaultCSRFHeaderName carries the echoed token (canonical form).
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// DefaultCSRFTokenLength is the random token size in bytes.
	DefaultCSRFTokenLength = 32
)

// CSRFConfig configures CSRFProtection.
type CSRFConfig struct {
	CookieName   string
	HeaderName   string
	CookieDomain string
	TokenLength  int
	Logger       *slog.Logger
}

// CSRFProtection guards the session cookie endpoints with a double-submit
// token. Every wrapped response carries the token cookie when the browser
// lacks one; unsafe methods must come from this origin and echo the cookie
// value in the header.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCSRFCookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultCSRFHeaderName
	}
	if cfg.TokenLength <= 0 {
		cfg.TokenLength = DefaultCSRFTokenLength
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if ck, err := r.Cookie(cfg.CookieName); err == nil {
				token = ck.Value
			}

			if isUnsafeMethod(r.Method) {
				if !isSameOrigin(r) {
					logger.WarnContext(r.Context(), "cross-site request rejected",
						"path", r.URL.Path,
						"origin", r.Header.Get("Origin"),
						"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"))
					WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "cross_site_request"})
					return
				}
				if !tokensMatch(token, r.Header.Get(cfg.HeaderName)) {
					WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "csrf_token_invalid"})
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if token == "" {
				fresh, err := newCSRFToken(cfg.TokenLength)
				if err != nil {
					logger.ErrorContext(r.Context(), "generate csrf token", "error", err)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    fresh,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					HttpOnly: false, // live.js reads it
					Secure:   isSecureRequest(r),
					SameSite: http.SameSiteStrictMode,
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// isSameOrigin rejects requests the browser marks as cross-site, and requests
// whose Origin names another host. Non-browser clients send neither header.
func isSameOrigin(r *http.Request) bool {
	switch strings.ToLower(r.Header.Get("Sec-Fetch-Site")) {
	case "", "same-origin", "none":
	default:
		return false
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func tokensMatch(cookie, header string) bool {
	if cookie == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) == 1
}

func newCSRFToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
