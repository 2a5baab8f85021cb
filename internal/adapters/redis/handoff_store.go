package redis

// Package redis provides Redis-based adapters for eventdesk.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	apperrors "github.com/target/eventdesk/internal/errors"
	"github.com/target/eventdesk/internal/ports"
)

// DefaultHandoffPrefix is the key prefix for pending handoff tickets.
const DefaultHandoffPrefix = "handoff:"

// DefaultHandoffTTL bounds how long a ticket can wait for the browser to redeem it.
const DefaultHandoffTTL = 30 * time.Second

var _ ports.HandoffStore = (*HandoffStore)(nil)

// HandoffStore parks session tokens under one-time tickets in Redis.
// Tickets expire via key TTL and are consumed atomically with GETDEL.
type HandoffStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// HandoffStoreOptions configures a HandoffStore.
type HandoffStoreOptions struct {
	Prefix string        // default "handoff:"
	TTL    time.Duration // default 30s
}

type handoff struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issuedAt"`
}

// NewHandoffStore creates a Redis-backed handoff store.
func NewHandoffStore(client redis.UniversalClient, opts HandoffStoreOptions) *HandoffStore {
	s := &HandoffStore{client: client, prefix: opts.Prefix, ttl: opts.TTL}
	if s.prefix == "" {
		s.prefix = DefaultHandoffPrefix
	}
	if s.ttl <= 0 {
		s.ttl = DefaultHandoffTTL
	}
	return s
}

func (s *HandoffStore) Issue(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.New("handoff token cannot be empty")
	}
	data, err := json.Marshal(handoff{Token: token, IssuedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("marshal handoff: %w", err)
	}

	ticket := uuid.NewString()
	if err := s.client.Set(ctx, s.prefix+ticket, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set: %w", err)
	}
	return ticket, nil
}

func (s *HandoffStore) Redeem(ctx context.Context, ticket string) (string, error) {
	if _, err := uuid.Parse(ticket); err != nil {
		return "", apperrors.NotFound("handoff ticket not found")
	}

	data, err := s.client.GetDel(ctx, s.prefix+ticket).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.NotFound("handoff ticket not found")
		}
		return "", fmt.Errorf("redis getdel: %w", err)
	}

	var h handoff
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		return "", fmt.Errorf("unmarshal handoff: %w", err)
	}
	return h.Token, nil
}

// Purge deletes every pending ticket and returns how many were removed.
// On a cluster every master is scanned and keys are deleted one at a time,
// since tickets hash to different slots.
func (s *HandoffStore) Purge(ctx context.Context) (int, error) {
	cluster, ok := s.client.(*redis.ClusterClient)
	if !ok {
		return s.purgeNode(ctx, s.client, func(ctx context.Context, keys []string) (int64, error) {
			return s.client.Del(ctx, keys...).Result()
		})
	}

	var removed atomic.Int64
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		n, err := s.purgeNode(ctx, node, func(ctx context.Context, keys []string) (int64, error) {
			var deleted int64
			for _, k := range keys {
				d, err := node.Del(ctx, k).Result()
				if err != nil {
					return deleted, err
				}
				deleted += d
			}
			return deleted, nil
		})
		removed.Add(int64(n))
		return err
	})
	return int(removed.Load()), err
}

func (s *HandoffStore) purgeNode(
	ctx context.Context,
	node redis.Cmdable,
	del func(ctx context.Context, keys []string) (int64, error),
) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := node.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := del(ctx, keys)
			removed += int(n)
			if err != nil {
				return removed, fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
