package config

import (
	"fmt"
	"strings"
	"time"
)

// BackendMode selects where auth calls go.
type BackendMode string

const (
	// BackendModeRemote talks to the REST backend at BACKEND_URL.
	BackendModeRemote BackendMode = "remote"
	// BackendModeDev serves the auth endpoints in-process (development only).
	BackendModeDev BackendMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for BackendMode.
func (m *BackendMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "remote", "dev":
		*m = BackendMode(v)
		return nil
	default:
		return fmt.Errorf("invalid BackendMode: %q (valid options: remote, dev)", v)
	}
}

// BackendConfig describes the REST backend that owns credentials and tokens.
type BackendConfig struct {
	Mode    BackendMode   `env:"MODE"    envDefault:"remote"`
	URL     string        `env:"URL"     envDefault:"http://localhost:3000"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Sanitize trims the URL and restores the default timeout.
func (c *BackendConfig) Sanitize() {
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	if c.Mode == "" {
		c.Mode = BackendModeRemote
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// IsDev reports whether the in-process dev backend is selected.
func (c *BackendConfig) IsDev() bool { return c.Mode == BackendModeDev }

// DevBackendConfig configures the in-process dev backend (BACKEND_MODE=dev).
type DevBackendConfig struct {
	// Users are email:bcryptHash:role entries.
	Users    []string      `env:"USERS"     envSeparator:";"`
	Secret   string        `env:"SECRET"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"8h"`
	// Addr is the loopback listener the dev backend serves on.
	Addr string `env:"ADDR" envDefault:"127.0.0.1:0"`
}

// Sanitize drops blank user entries.
func (c *DevBackendConfig) Sanitize() {
	c.Users = trimAll(c.Users)
	c.Secret = strings.TrimSpace(c.Secret)
	if c.TokenTTL <= 0 {
		c.TokenTTL = 8 * time.Hour
	}
	if c.Addr = strings.TrimSpace(c.Addr); c.Addr == "" {
		c.Addr = "127.0.0.1:0"
	}
}
