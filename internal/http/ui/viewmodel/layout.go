package viewmodel

import domainauth "github.com/target/eventdesk/internal/domain/auth"

// User represents the authenticated user context exposed to templates.
type User struct {
	ID                 string
	Email              string
	Name               string
	Role               string
	IsAdmin            bool
	MustChangePassword bool
}

// DisplayName prefers the user's name and falls back to the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// UserFromIdentity converts a verified identity; nil stays nil.
func UserFromIdentity(id *domainauth.Identity) *User {
	if id == nil {
		return nil
	}
	return &User{
		ID:                 id.ID,
		Email:              id.Email,
		Name:               id.Name,
		Role:               string(id.Role),
		IsAdmin:            id.Role.IsAdmin(),
		MustChangePassword: id.MustChangePassword,
	}
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	Path            string
	IsAuthenticated bool
	User            *User
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}

// LayoutData implements LayoutProvider.
func (l *Layout) LayoutData() *Layout { return l }

// Shell is the data for the static page shell the live script boots from.
type Shell struct {
	Layout
	LiveURL    string
	SignInPath string
}

// Page is the data for one live content fragment.
type Page struct {
	Layout
	Class string
	// Segment is the last path segment, e.g. the event ID on /events/42.
	Segment string
}
