// Package memstore holds in-process adapters for single-instance deployments.
package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/target/eventdesk/internal/errors"
	"github.com/target/eventdesk/internal/ports"
)

const defaultTTL = 30 * time.Second

var _ ports.HandoffStore = (*HandoffStore)(nil)

type entry struct {
	token   string
	expires time.Time
}

// HandoffStore keeps one-time tickets in memory. Expired tickets are swept on
// every Issue.
type HandoffStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// NewHandoffStore returns an empty store. ttl <= 0 means 30s; now nil means time.Now.
func NewHandoffStore(ttl time.Duration, now func() time.Time) *HandoffStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &HandoffStore{ttl: ttl, now: now, entries: make(map[string]entry)}
}

func (s *HandoffStore) Issue(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.New("handoff token cannot be empty")
	}
	ticket := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[ticket] = entry{token: token, expires: now.Add(s.ttl)}
	return ticket, nil
}

func (s *HandoffStore) Redeem(_ context.Context, ticket string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ticket]
	if !ok {
		return "", apperrors.NotFound("handoff ticket not found")
	}
	delete(s.entries, ticket)
	if !s.now().Before(e.expires) {
		return "", apperrors.NotFound("handoff ticket not found")
	}
	return e.token, nil
}

// size reports the number of stored tickets, expired or not.
func (s *HandoffStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
