package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/eventdesk/config"
)

// ErrRedisNotConfigured is returned by ConnectRedis when no topology is configured.
var ErrRedisNotConfigured = errors.New("redis not configured")

// RedisConnConfig contains configuration for the Redis connection.
type RedisConnConfig struct {
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ConnectRedis establishes and verifies a Redis connection.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func ConnectRedis(cfg RedisConnConfig) (redis.UniversalClient, error) {
	if !cfg.RedisConfig.Enabled() {
		return nil, ErrRedisNotConfigured
	}

	var (
		client   redis.UniversalClient
		addrDesc string
		err      error
	)

	switch {
	case cfg.RedisConfig.UseCluster:
		client, addrDesc, err = newClusterClient(cfg.RedisConfig)
	case cfg.RedisConfig.UseSentinel:
		client, addrDesc, err = newSentinelClient(cfg.RedisConfig)
	default:
		client, addrDesc, err = newDirectClient(cfg.RedisConfig)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", redactAddr(addrDesc))
	}
	return client, nil
}

// redactAddr strips credentials from an address for logging.
func redactAddr(addr string) string {
	if u, err := url.Parse(addr); err == nil && u.User != nil {
		u.User = url.User("*")
		return u.Redacted()
	}
	if i := strings.LastIndex(addr, "@"); i > -1 {
		return addr[i+1:]
	}
	return addr
}

//nolint:ireturn // see ConnectRedis
func newClusterClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	addrs := cfg.ClusterNodes
	opts := &redis.ClusterOptions{Password: cfg.Password}

	if len(addrs) == 0 && cfg.URI != "" {
		addr, username, password, tlsConfig, err := clusterFallbackFromURI(cfg.URI, cfg.Password)
		if err != nil {
			return nil, "", err
		}
		addrs = []string{addr}
		opts.Username = username
		opts.Password = password
		opts.TLSConfig = tlsConfig
	}
	if len(addrs) == 0 {
		return nil, "", errors.New("redis cluster configuration requires at least one address")
	}
	opts.Addrs = addrs
	return redis.NewClusterClient(opts), "cluster:" + strings.Join(addrs, ","), nil
}

//nolint:ireturn // see ConnectRedis
func newSentinelClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	if len(cfg.SentinelNodes) == 0 {
		return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
	}
	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       cfg.SentinelMasterName,
		SentinelAddrs:    cfg.SentinelNodes,
		Password:         cfg.Password,
		SentinelPassword: cfg.SentinelPassword,
	})
	return client, "sentinel:" + cfg.SentinelMasterName, nil
}

//nolint:ireturn // see ConnectRedis
func newDirectClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	if isRedisURL(cfg.URI) {
		opt, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), cfg.URI, nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.URI, Password: cfg.Password}), cfg.URI, nil
}

func clusterFallbackFromURI(uri, defaultPassword string) (string, string, string, *tls.Config, error) {
	if !isRedisURL(uri) {
		return uri, "", defaultPassword, nil, nil
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return "", "", "", nil, fmt.Errorf("parse redis cluster url: %w", err)
	}
	password := defaultPassword
	if opt.Password != "" {
		password = opt.Password
	}
	return opt.Addr, opt.Username, password, opt.TLSConfig, nil
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}
