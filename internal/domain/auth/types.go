package auth

// Package auth contains domain-level types for sessions and identities.
// It is pure and free of framework/adapter concerns.

import "strings"

// Role represents the backend-assigned authorization role of a user.
// Keep string form; the backend sends roles upper-cased.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleOrganizer Role = "ORGANIZER"
	RoleUser      Role = "USER"
)

// ParseRole normalizes a role string from the backend.
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// IsAdmin reports whether the role lands on the administrator dashboard.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Identity represents the verified user returned by the backend after a
// successful verification or sign-in.
type Identity struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name,omitempty"`
	Role               Role   `json:"role"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

// Credentials is the sign-in request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Status is the lifecycle stage of a tab's authentication state.
type Status int

const (
	StatusUninitialized Status = iota
	StatusChecking
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "uninitialized"
	}
}

// State is a snapshot of the auth state machine.
// Identity is non-nil only when Status is StatusAuthenticated.
type State struct {
	Status   Status
	Identity *Identity
}

// Pending reports whether verification has not produced a verdict yet.
func (s State) Pending() bool {
	return s.Status == StatusUninitialized || s.Status == StatusChecking
}

// Authenticated returns the state for a verified identity.
func Authenticated(id Identity) State {
	return State{Status: StatusAuthenticated, Identity: &id}
}

// Unauthenticated returns the terminal signed-out state.
func Unauthenticated() State {
	return State{Status: StatusUnauthenticated}
}
