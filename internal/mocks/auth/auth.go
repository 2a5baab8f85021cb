package auth

// Package auth contains simple hand-written test doubles for the session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"

	domainauth "github.com/target/eventdesk/internal/domain/auth"
	apperrors "github.com/target/eventdesk/internal/errors"
	"github.com/target/eventdesk/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthBackend  = (*StubBackend)(nil)
	_ ports.Navigator    = (*RecordingNavigator)(nil)
	_ ports.TokenStore   = (*TokenJar)(nil)
	_ ports.Location     = (*Location)(nil)
	_ ports.HandoffStore = (*MemoryHandoffStore)(nil)
)

// StubBackend simulates the REST backend. Without overrides, Verify and SignIn
// succeed with DefaultUser and SignOut succeeds.
type StubBackend struct {
	VerifyFunc  func(ctx context.Context) (domainauth.Identity, error)
	SignInFunc  func(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error)
	SignOutFunc func(ctx context.Context) error

	DefaultUser domainauth.Identity

	mu    sync.Mutex
	calls map[string]int
}

// NewStubBackend creates a StubBackend with a USER identity.
func NewStubBackend() *StubBackend {
	return &StubBackend{
		DefaultUser: domainauth.Identity{
			ID:    "user-1",
			Email: "user@example.com",
			Name:  "Mock User",
			Role:  domainauth.RoleUser,
		},
	}
}

func (s *StubBackend) Verify(ctx context.Context) (domainauth.Identity, error) {
	s.record("verify")
	if s.VerifyFunc != nil {
		return s.VerifyFunc(ctx)
	}
	return s.DefaultUser, nil
}

func (s *StubBackend) SignIn(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error) {
	s.record("sign_in")
	if s.SignInFunc != nil {
		return s.SignInFunc(ctx, creds)
	}
	return s.DefaultUser, nil
}

func (s *StubBackend) SignOut(ctx context.Context) error {
	s.record("sign_out")
	if s.SignOutFunc != nil {
		return s.SignOutFunc(ctx)
	}
	return nil
}

// Calls returns how many times the named operation ("verify", "sign_in", "sign_out") ran.
func (s *StubBackend) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *StubBackend) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[op]++
}

// RecordingNavigator records every navigation in order.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *RecordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

// Paths returns a copy of all recorded navigations.
func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// TokenJar counts ClearToken calls.
type TokenJar struct {
	mu      sync.Mutex
	cleared int
}

func (j *TokenJar) ClearToken() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cleared++
}

// Cleared returns the number of ClearToken calls.
func (j *TokenJar) Cleared() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cleared
}

// Location is a settable current route.
type Location struct {
	mu   sync.Mutex
	path string
}

// NewLocation returns a Location positioned at path.
func NewLocation(path string) *Location {
	return &Location{path: path}
}

func (l *Location) CurrentPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Set moves the location to path.
func (l *Location) Set(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.path = path
}

// MemoryHandoffStore issues deterministic tickets ("ticket-1", "ticket-2", ...).
type MemoryHandoffStore struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]string
}

// NewMemoryHandoffStore creates an empty MemoryHandoffStore.
func NewMemoryHandoffStore() *MemoryHandoffStore {
	return &MemoryHandoffStore{tickets: make(map[string]string)}
}

func (m *MemoryHandoffStore) Issue(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ticket := fmt.Sprintf("ticket-%d", m.seq)
	m.tickets[ticket] = token
	return ticket, nil
}

func (m *MemoryHandoffStore) Redeem(_ context.Context, ticket string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tickets[ticket]
	if !ok {
		return "", apperrors.NotFound("handoff ticket not found")
	}
	delete(m.tickets, ticket)
	return token, nil
}
