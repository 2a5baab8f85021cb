package httpx

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/eventdesk/internal/domain/auth"
	"github.com/target/eventdesk/internal/domain/route"
	"github.com/target/eventdesk/internal/http/ui/viewmodel"
	"github.com/target/eventdesk/internal/live"
)

func newTestRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: os.DirFS(TemplatePathFromTest)})
	require.NoError(t, err)
	return tr
}

func TestNewTemplateRenderer_RequiresFS(t *testing.T) {
	_, err := NewTemplateRenderer(TemplateRendererConfig{})
	require.Error(t, err)
}

func TestTemplateRenderer_Render(t *testing.T) {
	tr := newTestRenderer(t)
	admin := &domainauth.Identity{ID: "a-1", Email: "ada@example.com", Name: "Ada Lovelace", Role: domainauth.RoleAdmin}
	user := &domainauth.Identity{ID: "u-1", Email: "user@example.com", Role: domainauth.RoleUser}

	tests := []struct {
		name     string
		view     live.View
		wantPage string
		contains []string
		absent   []string
	}{
		{
			name:     "event detail for admin",
			view:     live.View{Path: "/events/42", Class: route.Protected, Identity: admin},
			wantPage: PageEvents,
			contains: []string{"Event 42", `href="/dashboard"`, "AL"},
		},
		{
			name:     "home for user hides admin links",
			view:     live.View{Path: "/", Class: route.Protected, Identity: user},
			wantPage: PageHome,
			contains: []string{"Welcome back, user@example.com", "Sign out"},
			absent:   []string{`href="/dashboard"`},
		},
		{
			name:     "sign-in form",
			view:     live.View{Path: "/sign-in", Class: route.AuthOnly},
			wantPage: PageSignIn,
			contains: []string{"data-live-sign-in", `name="password"`},
			absent:   []string{"Sign out"},
		},
		{
			name:     "public event",
			view:     live.View{Path: "/public/events/9", Class: route.Public},
			wantPage: PagePublic,
			contains: []string{"Event 9"},
		},
		{
			name:     "unmapped protected route",
			view:     live.View{Path: "/reports/q3", Class: route.Protected, Identity: user, Unmapped: true},
			wantPage: PageNotFound,
			contains: []string{"Page not found"},
		},
		{
			name:     "unknown route",
			view:     live.View{Path: "/events-archive/<script>", Class: route.Protected, Identity: user},
			wantPage: PageNotFound,
			contains: []string{"Page not found", "&lt;script&gt;"},
			absent:   []string{"<script>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tr.Render(context.Background(), tt.view)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, c.Page)
			for _, s := range tt.contains {
				assert.Contains(t, c.HTML, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, c.HTML, s)
			}
		})
	}
}

func TestTemplateRenderer_RenderShell(t *testing.T) {
	tr := newTestRenderer(t)
	w := httptest.NewRecorder()

	err := tr.RenderShell(w, httptest.NewRequest("GET", "/budget", nil), viewmodel.Shell{
		Layout:     viewmodel.Layout{Title: "Budget · EventDesk", Path: "/budget?year=2026"},
		LiveURL:    LivePath,
		SignInPath: "/sign-in",
	})

	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `data-live-url="/live"`)
	assert.Contains(t, body, `data-path="/budget?year=2026"`)
	assert.Contains(t, body, "/static/js/live.js")
	assert.Contains(t, body, "Loading")
}

func TestPageFor(t *testing.T) {
	tests := map[string]string{
		"/":                  PageHome,
		"/home":              PageHome,
		"/dashboard":         PageDashboard,
		"/events/7/edit":     PageEvents,
		"/account/sign-in":   PageSignIn,
		"/sign-up?ref=x":     PageSignUp,
		"/check-email":       PageCheckEmail,
		"/check-in/abc":      PageCheckIn,
		"/public":            PagePublic,
		"/reports":           PageNotFound,
		"/not-found":         PageNotFound,
		"":                   PageNotFound,
		"/events/design-ins": PageSignIn,
		"/sign-in-help":      PageSignIn,
	}
	for in, want := range tests {
		assert.Equal(t, want, PageFor(in), in)
	}
}
