package ports

// Package ports defines interfaces (hexagonal ports) for session-related behavior.
// Implementations live in internal/adapters and internal/live; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/eventdesk/internal/domain/auth"
)

// AuthBackend is the REST backend that owns credentials and session tokens.
// The session token travels implicitly (cookie) with every call.
type AuthBackend interface {
	// Verify returns the identity bound to the current session token.
	// Any non-success response is an error.
	Verify(ctx context.Context) (domainauth.Identity, error)

	// SignIn exchanges credentials for an identity; the backend sets the session token.
	SignIn(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error)

	// SignOut asks the backend to invalidate the session token.
	SignOut(ctx context.Context) error
}

// Navigator performs a client-side navigation in the owning tab.
type Navigator interface {
	Navigate(path string)
}

// TokenStore is the tab's view of the session-token cookie.
// ClearToken is best-effort; the backend remains the authority on token validity.
type TokenStore interface {
	ClearToken()
}

// Location reports the tab's current route.
type Location interface {
	CurrentPath() string
}

// HandoffStore parks a backend-issued session token under a one-time ticket
// so the browser can exchange it for an HTTP-only cookie.
type HandoffStore interface {
	Issue(ctx context.Context, token string) (ticket string, err error)
	Redeem(ctx context.Context, ticket string) (token string, err error)
}
