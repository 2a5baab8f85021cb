package config

import "strings"

// RedisConfig contains Redis configuration. An empty URI selects the in-memory handoff store.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:""`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:""`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// KeyPrefix namespaces handoff tickets.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"handoff:"`
}

// Sanitize trims addresses.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	c.SentinelNodes = trimAll(c.SentinelNodes)
	c.ClusterNodes = trimAll(c.ClusterNodes)
}

// Enabled reports whether any Redis topology is configured.
func (c *RedisConfig) Enabled() bool {
	switch {
	case c.UseCluster:
		return len(c.ClusterNodes) > 0 || c.URI != ""
	case c.UseSentinel:
		return len(c.SentinelNodes) > 0
	default:
		return c.URI != ""
	}
}
