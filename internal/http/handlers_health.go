package httpx

import (
	"context"
	"io"
	"net/http"
	"time"
)

const (
	healthResponse      = `{"status":"ok"}`
	unhealthyResponse   = `{"status":"unavailable"}`
	healthCheckDeadline = 2 * time.Second
)

// healthHandler serves readiness/liveness checks. When ready is set it must
// succeed within healthCheckDeadline for the check to pass.
func healthHandler(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, healthResponse
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckDeadline)
			err := ready(ctx)
			cancel()
			if err != nil {
				status, body = http.StatusServiceUnavailable, unhealthyResponse
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		if r.Method == http.MethodHead {
			return
		}
		// Nothing more to do if the client connection is gone.
		_, _ = io.WriteString(w, body)
	}
}
