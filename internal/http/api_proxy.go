package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// NewBackendProxy forwards /api/ requests, cookies included, to the REST backend.
func NewBackendProxy(baseURL string, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("backend url must be absolute: %q", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WarnContext(r.Context(), "backend proxy failed",
				slog.String("path", r.URL.Path),
				slog.Any("error", err),
			)
			WriteError(w, ErrorParams{
				Code:    http.StatusBadGateway,
				ErrCode: "backend_unavailable",
				Err:     errors.New("service unavailable, please try again"),
			})
		},
	}
	return proxy, nil
}
