package devbackend

// Package devbackend provides a config-driven stand-in for the REST backend's
// auth endpoints, for local development without the real service.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainauth "github.com/target/eventdesk/internal/domain/auth"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultCookieName = "jwt"
	defaultTokenTTL   = 8 * time.Hour

	invalidCredentialsMessage = "Invalid email or password"
)

// User is a configured development account.
type User struct {
	Email              string
	PasswordHash       string // bcrypt
	Role               domainauth.Role
	Name               string
	MustChangePassword bool
}

// ParseUsers parses "email:bcryptHash:ROLE" entries. Role may be omitted (USER).
func ParseUsers(entries []string) ([]User, error) {
	users := make([]User, 0, len(entries))
	for _, raw := range entries {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		email, rest, ok := strings.Cut(raw, ":")
		if !ok || strings.TrimSpace(email) == "" || rest == "" {
			return nil, fmt.Errorf("dev backend: invalid user entry %q (want email:hash:role)", redact(raw))
		}
		hash, role := rest, ""
		if i := strings.LastIndex(rest, ":"); i >= 0 && !strings.HasPrefix(rest[i+1:], "$") {
			hash, role = rest[:i], rest[i+1:]
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("dev backend: user %s: password must be a bcrypt hash: %w", email, err)
		}
		r := domainauth.ParseRole(role)
		if r == "" {
			r = domainauth.RoleUser
		}
		users = append(users, User{Email: strings.TrimSpace(email), PasswordHash: hash, Role: r})
	}
	return users, nil
}

func redact(entry string) string {
	email, _, _ := strings.Cut(entry, ":")
	return email + ":***"
}

// Config controls the dev backend.
type Config struct {
	Users      []User
	Secret     []byte
	TokenTTL   time.Duration // default 8h
	CookieName string        // default "jwt"
	Logger     *slog.Logger
	Now        func() time.Time
}

type account struct {
	id   string
	user User
}

// Server serves GET /api/auth/me, POST /api/auth/sign-in and POST /api/auth/sign-out.
// Tokens are HS256 JWTs; sign-out revokes the token's ID until it would have expired.
type Server struct {
	accounts   map[string]account
	secret     []byte
	ttl        time.Duration
	cookieName string
	logger     *slog.Logger
	now        func() time.Time
	dummyHash  []byte

	mu      sync.Mutex
	revoked map[string]time.Time
}

type claims struct {
	Email              string `json:"email"`
	Name               string `json:"name,omitempty"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password"`
	jwt.RegisteredClaims
}

// New constructs a Server from Config.
func New(cfg Config) (*Server, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("dev backend: secret must be at least 16 bytes")
	}
	if len(cfg.Users) == 0 {
		return nil, errors.New("dev backend: at least one user is required")
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("dev backend: prepare dummy hash: %w", err)
	}
	s := &Server{
		accounts:   make(map[string]account, len(cfg.Users)),
		secret:     append([]byte(nil), cfg.Secret...),
		ttl:        cfg.TokenTTL,
		cookieName: cfg.CookieName,
		logger:     cfg.Logger,
		now:        cfg.Now,
		dummyHash:  dummy,
		revoked:    make(map[string]time.Time),
	}
	if s.ttl <= 0 {
		s.ttl = defaultTokenTTL
	}
	if s.cookieName == "" {
		s.cookieName = defaultCookieName
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "dev_backend")
	if s.now == nil {
		s.now = time.Now
	}
	for _, u := range cfg.Users {
		key := strings.ToLower(u.Email)
		s.accounts[key] = account{
			id:   uuid.NewSHA1(uuid.NameSpaceURL, []byte("eventdesk:"+key)).String(),
			user: u,
		}
	}
	return s, nil
}

// Handler returns the HTTP handler for the auth endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", s.handleMe)
	mux.HandleFunc("POST /api/auth/sign-in", s.handleSignIn)
	mux.HandleFunc("POST /api/auth/sign-out", s.handleSignOut)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
	})
	return mux
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ck, err := r.Cookie(s.cookieName)
	if err != nil || ck.Value == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
		return
	}
	id, err := s.Parse(ck.Value)
	if err != nil {
		s.logger.DebugContext(r.Context(), "rejected token", "error", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Session expired"})
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	acct, ok := s.accounts[strings.ToLower(strings.TrimSpace(body.Email))]
	hash := s.dummyHash
	if ok {
		hash = []byte(acct.user.PasswordHash)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(body.Password)) != nil || !ok {
		s.logger.InfoContext(r.Context(), "sign in rejected", "email", body.Email)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": invalidCredentialsMessage})
		return
	}

	token, exp, err := s.issue(acct)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "issue token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Could not sign in"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.InfoContext(r.Context(), "signed in", "user_id", acct.id, "role", string(acct.user.Role))
	writeJSON(w, http.StatusOK, identityOf(acct))
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie(s.cookieName); err == nil && ck.Value != "" {
		if c, perr := s.parse(ck.Value); perr == nil {
			s.revoke(c)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// issue signs a token for acct and returns it with its expiry.
func (s *Server) issue(acct account) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	c := claims{
		Email:              acct.user.Email,
		Name:               acct.user.Name,
		Role:               string(acct.user.Role),
		MustChangePassword: acct.user.MustChangePassword,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   acct.id,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, exp, nil
}

// Parse validates a token and returns the identity it carries.
func (s *Server) Parse(token string) (domainauth.Identity, error) {
	c, err := s.parse(token)
	if err != nil {
		return domainauth.Identity{}, err
	}
	return domainauth.Identity{
		ID:                 c.Subject,
		Email:              c.Email,
		Name:               c.Name,
		Role:               domainauth.ParseRole(c.Role),
		MustChangePassword: c.MustChangePassword,
	}, nil
}

func (s *Server) parse(token string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if s.isRevoked(c.ID) {
		return nil, errors.New("token revoked")
	}
	return &c, nil
}

func (s *Server) revoke(c *claims) {
	if c == nil || c.ID == "" || c.ExpiresAt == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[c.ID] = c.ExpiresAt.Time
}

func (s *Server) isRevoked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[id]
	return ok
}

func identityOf(a account) domainauth.Identity {
	return domainauth.Identity{
		ID:                 a.id,
		Email:              a.user.Email,
		Name:               a.user.Name,
		Role:               a.user.Role,
		MustChangePassword: a.user.MustChangePassword,
	}
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
