package httpx

import (
	"strings"

	"github.com/target/eventdesk/internal/domain/route"
)

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	// Signed-in pages.
	PageHome      = "home"
	PageDashboard = "dashboard"
	PageBudget    = "budget"
	PageRole      = "role"
	PageEvents    = "events"

	// Sign-in flow pages.
	PageSignIn     = "sign-in"
	PageSignUp     = "sign-up"
	PageCheckEmail = "check-email"

	// Public pages.
	PagePublic  = "public"
	PageCheckIn = "check-in"

	PageNotFound = "not-found"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:       "home-content",
	PageDashboard:  "dashboard-content",
	PageBudget:     "budget-content",
	PageRole:       "role-content",
	PageEvents:     "events-content",
	PageSignIn:     "sign-in-content",
	PageSignUp:     "sign-up-content",
	PageCheckEmail: "check-email-content",
	PagePublic:     "public-content",
	PageCheckIn:    "check-in-content",
	PageNotFound:   "not-found-content",
}

//nolint:gochecknoglobals // static read-only lookup for page titles
var pageTitles = map[string]string{
	PageHome:       "Home",
	PageDashboard:  "Dashboard",
	PageBudget:     "Budget",
	PageRole:       "Roles",
	PageEvents:     "Events",
	PageSignIn:     "Sign in",
	PageSignUp:     "Sign up",
	PageCheckEmail: "Check your email",
	PagePublic:     "Event",
	PageCheckIn:    "Check in",
	PageNotFound:   "Not found",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to not-found-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return contentTemplates[PageNotFound]
}

// TitleFor returns the human title of a page.
func TitleFor(currentPage string) string {
	if t, ok := pageTitles[currentPage]; ok {
		return t
	}
	return pageTitles[PageNotFound]
}

// PageFor maps a route to the page that renders it. The root shows the home
// page; auth-only markers are recognised anywhere in the path, like the classifier does.
func PageFor(path string) string {
	p := route.Normalize(path)
	if p == "" {
		return PageNotFound
	}
	if p == "/" {
		return PageHome
	}
	for _, page := range []string{PageSignIn, PageSignUp, PageCheckEmail} {
		if strings.Contains(p, page) {
			return page
		}
	}
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if _, ok := contentTemplates[segments[0]]; ok && segments[0] != PageNotFound {
		return segments[0]
	}
	return PageNotFound
}

func lastSegment(path string) string {
	p := route.Normalize(path)
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return ""
}
