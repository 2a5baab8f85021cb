package config

import (
	"strings"
	"time"

	domainauth "github.com/target/eventdesk/internal/domain/auth"
	"github.com/target/eventdesk/internal/domain/route"
)

const (
	defaultCookieName       = "jwt"
	defaultCountdownSeconds = 3
	defaultHandoffTTL       = 30 * time.Second
	defaultCookieTTL        = 8 * time.Hour
)

// SessionConfig controls the session cookie, landing paths and the sign-in countdown.
type SessionConfig struct {
	CookieName    string `env:"COOKIE_NAME"    envDefault:"jwt"`
	SignInPath    string `env:"SIGN_IN_PATH"   envDefault:"/sign-in"`
	RootPath      string `env:"ROOT_PATH"      envDefault:"/"`
	DashboardPath string `env:"DASHBOARD_PATH" envDefault:"/dashboard"`

	// CountdownSeconds is how long a protected view shows its notice before redirecting.
	CountdownSeconds int `env:"COUNTDOWN_SECONDS" envDefault:"3"`

	// HandoffTTL bounds how long a token ticket may wait for redemption.
	HandoffTTL time.Duration `env:"HANDOFF_TTL" envDefault:"30s"`

	// CookieTTL is the Max-Age of the session cookie set on redemption.
	CookieTTL time.Duration `env:"COOKIE_TTL" envDefault:"8h"`
}

// Sanitize normalises paths and restores defaults for invalid values.
func (c *SessionConfig) Sanitize() {
	if c.CookieName = strings.TrimSpace(c.CookieName); c.CookieName == "" {
		c.CookieName = defaultCookieName
	}
	c.SignInPath = sanitizePath(c.SignInPath, domainauth.DefaultSignInPath)
	c.RootPath = sanitizePath(c.RootPath, domainauth.DefaultRootPath)
	c.DashboardPath = sanitizePath(c.DashboardPath, domainauth.DefaultDashboardPath)
	if c.CountdownSeconds < 1 {
		c.CountdownSeconds = defaultCountdownSeconds
	}
	if c.HandoffTTL <= 0 {
		c.HandoffTTL = defaultHandoffTTL
	}
	if c.CookieTTL <= 0 {
		c.CookieTTL = defaultCookieTTL
	}
}

// Landing returns the landing policy built from the configured paths.
func (c *SessionConfig) Landing() domainauth.LandingPolicy {
	return domainauth.LandingPolicy{RootPath: c.RootPath, DashboardPath: c.DashboardPath}
}

func sanitizePath(raw, fallback string) string {
	if p := route.Normalize(raw); p != "" {
		return p
	}
	return fallback
}

// RoutesConfig overrides the route classification policy. Empty lists keep the defaults.
type RoutesConfig struct {
	Protected []string `env:"PROTECTED" envSeparator:","`
	AuthOnly  []string `env:"AUTH_ONLY" envSeparator:","`
	Public    []string `env:"PUBLIC"    envSeparator:","`
}

// Sanitize drops blank entries.
func (c *RoutesConfig) Sanitize() {
	c.Protected = trimAll(c.Protected)
	c.AuthOnly = trimAll(c.AuthOnly)
	c.Public = trimAll(c.Public)
}

// Policy merges the overrides onto route.DefaultPolicy.
func (c *RoutesConfig) Policy() route.Policy {
	p := route.DefaultPolicy()
	if len(c.Protected) > 0 {
		p.ProtectedSegments = c.Protected
	}
	if len(c.AuthOnly) > 0 {
		p.AuthOnlyMarkers = c.AuthOnly
	}
	if len(c.Public) > 0 {
		p.PublicPrefixes = c.Public
	}
	return p
}
