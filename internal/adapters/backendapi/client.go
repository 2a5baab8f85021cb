// Package backendapi talks to the REST backend that owns accounts and session tokens.
package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/eventdesk/internal/domain/auth"
	apperrors "github.com/target/eventdesk/internal/errors"
	"github.com/target/eventdesk/internal/ports"
	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultCookieName is the session-token cookie shared by the backend and the browser.
	DefaultCookieName = "jwt"

	mePath      = "/api/auth/me"
	signInPath  = "/api/auth/sign-in"
	signOutPath = "/api/auth/sign-out"

	maxErrorBody = 64 << 10
)

var (
	_ ports.AuthBackend = (*Client)(nil)
	_ ports.TokenStore  = (*Client)(nil)
)

// Config captures the backend endpoint and the token to start the session with.
type Config struct {
	BaseURL    string
	CookieName string // default "jwt"
	// Token seeds the cookie jar, typically from the browser's session cookie.
	Token     string
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client is a per-tab backend client. The session token lives in its cookie jar
// and travels implicitly with every request, the way it does from a browser.
type Client struct {
	base       *url.URL
	cookieName string
	jar        *cookiejar.Jar
	client     *http.Client
	logger     *slog.Logger
}

// NewClient builds a Client. BaseURL must be absolute.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("backend base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend base url must be absolute: %q", raw)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	name := strings.TrimSpace(cfg.CookieName)
	if name == "" {
		name = DefaultCookieName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		base:       base,
		cookieName: name,
		jar:        jar,
		client:     &http.Client{Timeout: timeout, Jar: jar, Transport: cfg.Transport},
		logger:     logger.With("component", "backend_client"),
	}
	if cfg.Token != "" {
		c.SetToken(cfg.Token)
	}
	return c, nil
}

// Verify returns the identity for the current token. Any non-200 response is an error.
func (c *Client) Verify(ctx context.Context) (domainauth.Identity, error) {
	var id domainauth.Identity
	if err := c.do(ctx, http.MethodGet, mePath, nil, &id); err != nil {
		return domainauth.Identity{}, err
	}
	return id, nil
}

// SignIn posts credentials. On success the backend's Set-Cookie lands in the jar.
func (c *Client) SignIn(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error) {
	body := map[string]string{"email": creds.Email, "password": creds.Password}
	var id domainauth.Identity
	if err := c.do(ctx, http.MethodPost, signInPath, body, &id); err != nil {
		return domainauth.Identity{}, err
	}
	return id, nil
}

// SignOut asks the backend to invalidate the token.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, signOutPath, nil, nil)
}

// Token returns the session token currently held in the jar, or "".
func (c *Client) Token() string {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == c.cookieName {
			return ck.Value
		}
	}
	return ""
}

// SetToken places token in the jar for the backend host.
func (c *Client) SetToken(token string) {
	c.jar.SetCookies(c.base, []*http.Cookie{{Name: c.cookieName, Value: token, Path: "/"}})
}

// ClearToken drops the session token from the jar.
func (c *Client) ClearToken() {
	c.jar.SetCookies(c.base, []*http.Cookie{{Name: c.cookieName, Value: "", Path: "/", MaxAge: -1}})
}

func (c *Client) endpoint(p string) string {
	u := *c.base
	u.Path = c.base.Path + p
	return u.String()
}

func (c *Client) do(ctx context.Context, method, p string, in any, out *domainauth.Identity) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", p, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(p), body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", p, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, apperrors.UserMessage(nil, apperrors.ErrCodeUnavailable))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.DebugContext(ctx, "close response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeIdentity(resp.Body, out)
}

// identityEnvelope accepts both a bare identity and {"user": {...}}.
type identityEnvelope struct {
	domainauth.Identity
	User *domainauth.Identity `json:"user"`
}

func decodeIdentity(r io.Reader, id *domainauth.Identity) error {
	var env identityEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "unexpected response from server")
	}
	*id = env.Identity
	if env.User != nil {
		*id = *env.User
	}
	id.Role = domainauth.ParseRole(string(id.Role))
	if id.ID == "" {
		return apperrors.New(apperrors.ErrCodeUnavailable, "unexpected response from server")
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// errorFromResponse maps a non-2xx response to an AppError carrying the
// backend's human-readable message when it sent one.
func errorFromResponse(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, apperrors.UserMessage(nil, apperrors.ErrCodeUnavailable))
	}
	var eb errorBody
	msg := ""
	if json.Unmarshal(raw, &eb) == nil {
		msg = strings.TrimSpace(eb.Message)
		if msg == "" {
			msg = strings.TrimSpace(eb.Error)
		}
	}
	return apperrors.FromStatus(resp.StatusCode, msg)
}
