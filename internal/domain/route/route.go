package route

// Package route classifies application paths for session gating.
// The same Classifier value is handed to the edge guard and the view gate;
// there must never be a second list of patterns anywhere else.

import (
	"path"
	"strings"
)

// Class is the gating category of a path.
type Class int

const (
	// Protected paths require a verified session. It is the zero value and
	// the verdict for every unlisted path.
	Protected Class = iota
	// Public paths are served regardless of session state.
	Public
	// AuthOnly paths (sign-in, sign-up, ...) only make sense to visitors without a session.
	AuthOnly
)

func (c Class) String() string {
	switch c {
	case Public:
		return "public"
	case AuthOnly:
		return "auth_only"
	default:
		return "protected"
	}
}

// Policy lists the patterns a Classifier evaluates.
type Policy struct {
	// ProtectedSegments are first path segments known to require a session.
	ProtectedSegments []string
	// AuthOnlyMarkers match any path segment (e.g. "sign-in" matches /auth/sign-in).
	AuthOnlyMarkers []string
	// PublicPrefixes match the prefix itself and anything below it.
	PublicPrefixes []string
}

// DefaultPolicy returns the routing policy used by the event application.
func DefaultPolicy() Policy {
	return Policy{
		ProtectedSegments: []string{"home", "dashboard", "budget", "role", "events"},
		AuthOnlyMarkers:   []string{"sign-in", "sign-up", "check-email"},
		PublicPrefixes:    []string{"/public", "/check-in"},
	}
}

// Classifier maps paths to a Class. It is immutable and safe for concurrent use.
type Classifier struct {
	protected map[string]struct{}
	authOnly  []string
	public    []string
}

// NewClassifier builds a Classifier from a policy. Empty entries are ignored.
func NewClassifier(p Policy) *Classifier {
	c := &Classifier{protected: make(map[string]struct{}, len(p.ProtectedSegments))}
	for _, s := range p.ProtectedSegments {
		if s = strings.Trim(strings.TrimSpace(s), "/"); s != "" {
			c.protected[s] = struct{}{}
		}
	}
	for _, m := range p.AuthOnlyMarkers {
		if m = strings.Trim(strings.TrimSpace(m), "/"); m != "" {
			c.authOnly = append(c.authOnly, m)
		}
	}
	for _, pre := range p.PublicPrefixes {
		pre = strings.TrimSpace(pre)
		if pre == "" {
			continue
		}
		c.public = append(c.public, Normalize(pre))
	}
	return c
}

// Classify returns the class of the given path. The path is normalized first;
// empty or malformed input is Protected.
func (c *Classifier) Classify(raw string) Class {
	if c == nil {
		return Protected
	}
	p := Normalize(raw)
	if p == "" {
		return Protected
	}
	if c.isPublic(p) {
		return Public
	}
	if c.isAuthOnly(p) {
		return AuthOnly
	}
	// Listed protected segments and unlisted paths share the same verdict.
	return Protected
}

// IsKnownProtected reports whether the first segment of the path is on the protected allow-list.
func (c *Classifier) IsKnownProtected(raw string) bool {
	if c == nil {
		return false
	}
	p := Normalize(raw)
	if p == "" {
		return false
	}
	if p == "/" {
		return true
	}
	first, _, _ := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	_, ok := c.protected[first]
	return ok
}

func (c *Classifier) isPublic(p string) bool {
	for _, pre := range c.public {
		if p == pre || strings.HasPrefix(p, pre+"/") {
			return true
		}
	}
	return false
}

// isAuthOnly matches markers anywhere in the normalized path.
func (c *Classifier) isAuthOnly(p string) bool {
	for _, m := range c.authOnly {
		if strings.Contains(p, m) {
			return true
		}
	}
	return false
}

// Normalize strips query and fragment from raw and cleans the path.
// It returns "" when raw cannot be a request path.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return ""
	}
	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			return ""
		}
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return path.Clean(raw)
}

// exemptPrefixes are never classified by the edge matcher.
//
//nolint:gochecknoglobals // static read-only matcher list
var exemptPrefixes = []string{"/api", "/static", "/auth/session", "/live", "/healthz"}

// Exempt reports whether the edge guard skips a path entirely:
// backend API paths, built static assets, the favicon, the cookie handoff
// endpoint and infrastructure endpoints.
func Exempt(raw string) bool {
	p := Normalize(raw)
	if p == "/favicon.ico" {
		return true
	}
	for _, pre := range exemptPrefixes {
		if p == pre || strings.HasPrefix(p, pre+"/") {
			return true
		}
	}
	return false
}
