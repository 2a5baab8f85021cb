package httpx

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/eventdesk/internal/domain/route"
)

type countingSink struct {
	mu   sync.Mutex
	tags []map[string]string
}

func (s *countingSink) Count(name string, _ int64, tags map[string]string) {
	if name != "edge.decision" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append(s.tags, tags)
}

func (s *countingSink) Timing(string, time.Duration, map[string]string) {}

func newGuardedHandler(sink *countingSink) http.Handler {
	guard := EdgeGuard(EdgeGuardConfig{
		Classifier: route.NewClassifier(route.DefaultPolicy()),
		Metrics:    sink,
	})
	return guard(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
}

func TestEdgeGuard(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
		wantLoc  string
	}{
		{name: "protected without token", path: "/budget", wantCode: http.StatusSeeOther, wantLoc: "/sign-in"},
		{name: "protected nested without token", path: "/events/42/edit?x=1", wantCode: http.StatusSeeOther, wantLoc: "/sign-in"},
		{name: "unlisted path without token", path: "/reports", wantCode: http.StatusSeeOther, wantLoc: "/sign-in"},
		{name: "root without token", path: "/", wantCode: http.StatusSeeOther, wantLoc: "/sign-in"},
		{name: "protected with token", path: "/budget", token: "anything", wantCode: http.StatusTeapot},
		{name: "auth-only with token", path: "/sign-in", token: "t", wantCode: http.StatusSeeOther, wantLoc: "/"},
		{name: "auth endpoints exempt", path: "/auth/session", token: "t", wantCode: http.StatusTeapot},
		{name: "auth-only without token", path: "/check-email", wantCode: http.StatusTeapot},
		{name: "public without token", path: "/public/events/9", wantCode: http.StatusTeapot},
		{name: "public with token", path: "/check-in/abc", token: "t", wantCode: http.StatusTeapot},
		{name: "api exempt", path: "/api/auth/me", wantCode: http.StatusTeapot},
		{name: "static exempt", path: "/static/js/live.js", wantCode: http.StatusTeapot},
		{name: "favicon exempt", path: "/favicon.ico", wantCode: http.StatusTeapot},
		{name: "live exempt", path: "/live", wantCode: http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newGuardedHandler(&countingSink{})
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: "jwt", Value: tt.token})
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
		})
	}
}

func TestEdgeGuard_NestedAuthOnlyRedirectsWithToken(t *testing.T) {
	h := newGuardedHandler(&countingSink{})
	req := httptest.NewRequest(http.MethodGet, "/account/sign-in", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "t"})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestEdgeGuard_EmptyCookieIsNoToken(t *testing.T) {
	h := newGuardedHandler(&countingSink{})
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: ""})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/sign-in", rec.Header().Get("Location"))
}

func TestEdgeGuard_HTMXGetsHxRedirect(t *testing.T) {
	h := newGuardedHandler(&countingSink{})
	req := httptest.NewRequest(http.MethodGet, "/role", nil)
	req.Header.Set("Hx-Request", "true")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/sign-in", rec.Header().Get("Hx-Redirect"))
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestEdgeGuard_Metrics(t *testing.T) {
	sink := &countingSink{}
	h := newGuardedHandler(sink)

	for _, p := range []string{"/budget", "/public/x", "/api/auth/me"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	require.Len(t, sink.tags, 2, "exempt paths are never classified")
	assert.Equal(t, map[string]string{"class": "protected", "action": "redirect", "token": "absent"}, sink.tags[0])
	assert.Equal(t, map[string]string{"class": "public", "action": "pass", "token": "absent"}, sink.tags[1])
}
