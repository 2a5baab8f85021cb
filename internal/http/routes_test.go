package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/eventdesk/internal/adapters/backendapi"
	"github.com/target/eventdesk/internal/adapters/devbackend"
	domainauth "github.com/target/eventdesk/internal/domain/auth"
	"github.com/target/eventdesk/internal/domain/route"
	"github.com/target/eventdesk/internal/live"
	mockauth "github.com/target/eventdesk/internal/mocks/auth"
	"golang.org/x/crypto/bcrypt"
)

type routerFixture struct {
	handler http.Handler
	handoff *mockauth.MemoryHandoffStore
	dev     *devbackend.Server
	api     *httptest.Server
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pw"), bcrypt.MinCost)
	require.NoError(t, err)
	dev, err := devbackend.New(devbackend.Config{
		Users:  []devbackend.User{{Email: "admin@example.com", PasswordHash: string(hash), Role: domainauth.RoleAdmin}},
		Secret: []byte("0123456789abcdef0123"),
	})
	require.NoError(t, err)
	api := httptest.NewServer(dev.Handler())
	t.Cleanup(api.Close)

	f := &routerFixture{handoff: mockauth.NewMemoryHandoffStore(), dev: dev, api: api}
	f.handler, err = NewRouter(RouterServices{
		Classifier: route.NewClassifier(route.DefaultPolicy()),
		Landing:    domainauth.DefaultLandingPolicy(),
		Handoff:    f.handoff,
		NewBackend: func(token string) (TabBackend, error) {
			return backendapi.NewClient(backendapi.Config{BaseURL: api.URL, Token: token})
		},
		API: dev.Handler(),
	})
	require.NoError(t, err)
	return f
}

func TestNewRouter_Validation(t *testing.T) {
	_, err := NewRouter(RouterServices{})
	require.Error(t, err)

	_, err = NewRouter(RouterServices{Classifier: route.NewClassifier(route.DefaultPolicy())})
	require.Error(t, err)
}

func TestRouter_PagesAreGuarded(t *testing.T) {
	f := newRouterFixture(t)

	tests := []struct {
		name     string
		method   string
		path     string
		cookie   bool
		wantCode int
		wantLoc  string
	}{
		{name: "protected without cookie", method: http.MethodGet, path: "/budget", wantCode: http.StatusSeeOther, wantLoc: "/sign-in"},
		{name: "protected with cookie", method: http.MethodGet, path: "/budget", cookie: true, wantCode: http.StatusOK},
		{name: "sign-in without cookie", method: http.MethodGet, path: "/sign-in", wantCode: http.StatusOK},
		{name: "sign-in with cookie", method: http.MethodGet, path: "/sign-in", cookie: true, wantCode: http.StatusSeeOther, wantLoc: "/"},
		{name: "public", method: http.MethodGet, path: "/public/events/1", wantCode: http.StatusOK},
		{name: "post to a page", method: http.MethodPost, path: "/events", cookie: true, wantCode: http.StatusMethodNotAllowed},
		{name: "health", method: http.MethodGet, path: "/healthz", wantCode: http.StatusOK},
		{name: "static", method: http.MethodGet, path: "/static/js/live.js", wantCode: http.StatusOK},
		{name: "auth-prefixed sign-in without cookie", method: http.MethodGet, path: "/auth/sign-in", wantCode: http.StatusOK},
		{name: "auth-prefixed sign-in with cookie", method: http.MethodGet, path: "/auth/sign-in", cookie: true, wantCode: http.StatusSeeOther, wantLoc: "/"},
		{name: "session endpoint rejects GET", method: http.MethodGet, path: "/auth/session", wantCode: http.StatusMethodNotAllowed},
		{name: "unknown auth path is gated", method: http.MethodGet, path: "/auth/other", wantCode: http.StatusSeeOther, wantLoc: "/sign-in"},
		{name: "api passes through unauthenticated", method: http.MethodGet, path: "/api/auth/me", wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.cookie {
				req.AddCookie(&http.Cookie{Name: "jwt", Value: "opaque"})
			}
			w := httptest.NewRecorder()
			f.handler.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantLoc, w.Header().Get("Location"))
		})
	}
}

func TestRouter_ShellIsNotCached(t *testing.T) {
	f := newRouterFixture(t)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/check-in/abc", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Body.String(), `data-live-url="/live"`)
}

// readFrames reads until stop returns true for a frame.
func readFrames(t *testing.T, conn *websocket.Conn, stop func(live.Frame) bool) []live.Frame {
	t.Helper()
	var frames []live.Frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var f live.Frame
		require.NoError(t, conn.ReadJSON(&f), "frames so far: %+v", frames)
		frames = append(frames, f)
		if stop(f) {
			return frames
		}
	}
}

func kindsOf(frames []live.Frame) []live.FrameKind {
	out := make([]live.FrameKind, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Kind)
	}
	return out
}

// fetchCSRFToken loads the sign-in shell and returns the CSRF cookie it sets.
func fetchCSRFToken(t *testing.T, baseURL string) string {
	t.Helper()
	resp, err := http.Get(baseURL + "/sign-in")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, ck := range resp.Cookies() {
		if ck.Name == DefaultCSRFCookieName {
			return ck.Value
		}
	}
	t.Fatal("shell did not set a CSRF cookie")
	return ""
}

func TestRouter_SessionEndpointRejectsCrossSitePosts(t *testing.T) {
	f := newRouterFixture(t)
	ticket, err := f.handoff.Issue(context.Background(), "attacker-token")
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		cookie  bool
	}{
		{
			name:    "cross-site text form",
			headers: map[string]string{"Content-Type": "text/plain", "Origin": "https://evil.example", "Sec-Fetch-Site": "cross-site"},
		},
		{
			name:    "json without csrf token",
			headers: map[string]string{"Content-Type": "application/json"},
		},
		{
			name:    "text body with valid csrf token",
			headers: map[string]string{"Content-Type": "text/plain", DefaultCSRFHeaderName: "tok"},
			cookie:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(`{"ticket":"`+ticket+`"}`))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.cookie {
				req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
			}
			w := httptest.NewRecorder()
			f.handler.ServeHTTP(w, req)

			assert.GreaterOrEqual(t, w.Code, 400)
			for _, ck := range w.Result().Cookies() {
				assert.NotEqual(t, "jwt", ck.Name, "session cookie must not be set")
			}
		})
	}

	// The ticket was never consumed.
	token, err := f.handoff.Redeem(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, "attacker-token", token)
}

func TestRouter_LiveSignInHandsOffCookie(t *testing.T) {
	f := newRouterFixture(t)
	srv := httptest.NewServer(f.handler)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + LivePath + "?path=/sign-in"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	// The sign-in page renders immediately; verification then fails and clears the token.
	frames := readFrames(t, conn, func(fr live.Frame) bool { return fr.Kind == live.FrameClearToken })
	assert.Equal(t, live.FrameContent, frames[0].Kind)
	assert.Equal(t, PageSignIn, frames[0].Page)

	require.NoError(t, conn.WriteJSON(live.Message{Type: live.MessageSignIn, Email: "admin@example.com", Password: "admin-pw"}))
	frames = readFrames(t, conn, func(fr live.Frame) bool { return fr.Kind == live.FrameSignInResult })

	assert.Equal(t,
		[]live.FrameKind{live.FrameToken, live.FrameWithhold, live.FrameNavigate, live.FrameSignInResult},
		kindsOf(frames))
	assert.Equal(t, "/dashboard", frames[2].To)
	assert.True(t, frames[3].OK)

	// Redeem the ticket for the HTTP-only cookie.
	body, err := json.Marshal(map[string]string{"ticket": frames[0].Ticket})
	require.NoError(t, err)
	csrfToken := fetchCSRFToken(t, srv.URL)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/session", strings.NewReader(string(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(DefaultCSRFHeaderName, csrfToken)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: csrfToken})
	redeem, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, redeem.Body)
	_ = redeem.Body.Close()
	require.Equal(t, http.StatusNoContent, redeem.StatusCode)

	var token string
	for _, ck := range redeem.Cookies() {
		if ck.Name == "jwt" {
			token = ck.Value
			assert.True(t, ck.HttpOnly)
		}
	}
	require.NotEmpty(t, token)
	id, err := f.dev.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, id.Role)

	// The browser follows the navigate frame and reports the new route.
	require.NoError(t, conn.WriteJSON(live.Message{Type: live.MessageRoute, Path: "/dashboard"}))
	frames = readFrames(t, conn, func(fr live.Frame) bool { return fr.Kind == live.FrameContent })
	assert.Equal(t, PageDashboard, frames[len(frames)-1].Page)
	assert.Contains(t, frames[len(frames)-1].HTML, "admin@example.com")
}

func TestRouter_LiveProtectedRouteWithStaleCookieCountsDown(t *testing.T) {
	f := newRouterFixture(t)
	srv := httptest.NewServer(f.handler)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Add("Cookie", "jwt=stale")
	conn, resp, err := websocket.DefaultDialer.DialContext(context.Background(),
		"ws"+strings.TrimPrefix(srv.URL, "http")+LivePath+"?path=/budget", header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	frames := readFrames(t, conn, func(fr live.Frame) bool { return fr.Kind == live.FrameCountdown })
	assert.Equal(t, live.FrameLoading, frames[0].Kind)
	assert.Equal(t, 3, frames[len(frames)-1].Seconds)
	for _, fr := range frames {
		assert.NotEqual(t, live.FrameContent, fr.Kind)
	}
}
