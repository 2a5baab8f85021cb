package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - http.go: HTTP server configuration
//   - session.go: Session, landing and route policy configuration
//   - backend.go: Auth backend and dev backend configuration
//   - redis.go: Redis connection used by the handoff store
//   - observability.go: Metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (templates from disk, dev defaults).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	HTTP    HTTPConfig
	Session SessionConfig `envPrefix:"SESSION_"`
	Routes  RoutesConfig  `envPrefix:"ROUTES_"`

	Backend    BackendConfig    `envPrefix:"BACKEND_"`
	DevBackend DevBackendConfig `envPrefix:"DEV_BACKEND_"`

	Redis RedisConfig `envPrefix:"REDIS_"`

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	// Check NODE_ENV for dev mode before anything depends on it
	c.detectDevMode()

	c.HTTP.Sanitize()
	c.Session.Sanitize()
	c.Routes.Sanitize()
	c.Backend.Sanitize()
	c.DevBackend.Sanitize()
	c.Redis.Sanitize()
	c.Observability.Sanitize()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
