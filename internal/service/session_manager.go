package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/eventdesk/internal/domain/auth"
	"github.com/target/eventdesk/internal/domain/route"
	apperrors "github.com/target/eventdesk/internal/errors"
	"github.com/target/eventdesk/internal/observability/metrics"
	"github.com/target/eventdesk/internal/observability/statsd"
	"github.com/target/eventdesk/internal/ports"
)

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Backend    ports.AuthBackend
	Navigator  ports.Navigator
	Tokens     ports.TokenStore // optional
	Location   ports.Location
	Classifier *route.Classifier
	Landing    domainauth.LandingPolicy
	SignInPath string       // default "/sign-in"
	Metrics    statsd.Sink  // optional
	Logger     *slog.Logger // optional
}

// SessionManager owns the authentication state of one browser tab.
// It is the only writer of the tab's State and Identity; everything else observes
// through State and Subscribe.
//
// CheckAuth is single-flight: a call while a verification is pending is a no-op.
// SignIn and SignOut are not gated by it, but a verification that resolves after
// a newer successful sign-in or a sign-out is discarded.
type SessionManager struct {
	backend    ports.AuthBackend
	navigator  ports.Navigator
	tokens     ports.TokenStore
	location   ports.Location
	classifier *route.Classifier
	landing    domainauth.LandingPolicy
	signInPath string
	metrics    statsd.Sink
	logger     *slog.Logger

	mu          sync.Mutex
	state       domainauth.State
	initialized bool
	generation  uint64
	listeners   map[uint64]func(domainauth.State)
	nextID      uint64

	// emitMu keeps listener notifications in commit order.
	emitMu sync.Mutex
}

// NewSessionManager constructs a SessionManager in the UNINITIALIZED state.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Backend == nil {
		return nil, errors.New("session manager: backend is required")
	}
	if opts.Navigator == nil {
		return nil, errors.New("session manager: navigator is required")
	}
	if opts.Location == nil {
		return nil, errors.New("session manager: location is required")
	}
	if opts.Classifier == nil {
		return nil, errors.New("session manager: classifier is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	signIn := opts.SignInPath
	if signIn == "" {
		signIn = domainauth.DefaultSignInPath
	}
	return &SessionManager{
		backend:    opts.Backend,
		navigator:  opts.Navigator,
		tokens:     opts.Tokens,
		location:   opts.Location,
		classifier: opts.Classifier,
		landing:    opts.Landing,
		signInPath: signIn,
		metrics:    opts.Metrics,
		logger:     logger.With("component", "session_manager"),
		listeners:  make(map[uint64]func(domainauth.State)),
	}, nil
}

// State returns a snapshot of the current auth state.
func (m *SessionManager) State() domainauth.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to be called after every state transition.
// fn must not call CheckAuth, SignIn, or SignOut synchronously.
func (m *SessionManager) Subscribe(fn func(domainauth.State)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Mount runs the initial verification the first time it is called; later calls do nothing.
func (m *SessionManager) Mount(ctx context.Context) {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return
	}
	m.initialized = true
	m.mu.Unlock()

	m.CheckAuth(ctx)
}

// CheckAuth verifies the session token against the backend.
// It returns false without doing anything when a verification is already in flight.
func (m *SessionManager) CheckAuth(ctx context.Context) bool {
	m.mu.Lock()
	if m.state.Status == domainauth.StatusChecking {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "verification already in flight")
		return false
	}
	gen := m.generation
	m.commitAndUnlock(domainauth.State{Status: domainauth.StatusChecking})

	start := time.Now()
	id, err := m.backend.Verify(ctx)

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.logger.InfoContext(ctx, "discarding superseded verification result")
		m.emit(metrics.SessionTransition{Operation: "check_auth", Result: metrics.ResultNoop, Duration: time.Since(start)})
		return true
	}

	path := m.location.CurrentPath()
	class := m.classifier.Classify(path)

	if err != nil {
		m.commitAndUnlock(domainauth.Unauthenticated())
		m.clearToken()
		m.logger.InfoContext(ctx, "session verification failed",
			"error", err,
			"path", path,
			"route_class", class.String(),
			"sign_in_redirect", class == route.Protected,
		)
		m.emit(metrics.SessionTransition{
			Operation: "check_auth",
			Result:    metrics.ResultError,
			To:        domainauth.StatusUnauthenticated.String(),
			Duration:  time.Since(start),
			Err:       err,
		})
		return true
	}

	m.commitAndUnlock(domainauth.Authenticated(id))
	m.logger.InfoContext(ctx, "session verified", "user_id", id.ID, "role", string(id.Role))
	m.emit(metrics.SessionTransition{
		Operation: "check_auth",
		Result:    metrics.ResultSuccess,
		To:        domainauth.StatusAuthenticated.String(),
		Duration:  time.Since(start),
	})
	if class == route.AuthOnly {
		m.navigator.Navigate(m.landing.For(id.Role))
	}
	return true
}

// SignIn exchanges credentials with the backend. On success the tab becomes
// AUTHENTICATED and is sent to its landing path. On failure the state is left
// as it was and the returned *errors.AppError carries a message for the form.
func (m *SessionManager) SignIn(ctx context.Context, creds domainauth.Credentials) error {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return apperrors.Validation("email and password are required")
	}

	start := time.Now()
	id, err := m.backend.SignIn(ctx, creds)
	if err != nil {
		m.logger.WarnContext(ctx, "sign in rejected", "email", creds.Email, "error", err)
		m.emit(metrics.SessionTransition{Operation: "sign_in", Result: metrics.ResultError, Duration: time.Since(start), Err: err})
		return signInError(err)
	}

	m.mu.Lock()
	m.generation++
	m.commitAndUnlock(domainauth.Authenticated(id))

	m.logger.InfoContext(ctx, "signed in", "user_id", id.ID, "role", string(id.Role))
	m.emit(metrics.SessionTransition{
		Operation: "sign_in",
		Result:    metrics.ResultSuccess,
		To:        domainauth.StatusAuthenticated.String(),
		Duration:  time.Since(start),
	})
	m.navigator.Navigate(m.landing.For(id.Role))
	return nil
}

// SignOut ends the session. The backend call is best-effort; the local state,
// identity, and token are always cleared and the tab is sent to sign-in.
func (m *SessionManager) SignOut(ctx context.Context) {
	start := time.Now()
	result := metrics.ResultSuccess
	err := m.backend.SignOut(ctx)
	if err != nil {
		result = metrics.ResultError
		m.logger.WarnContext(ctx, "backend sign out failed", "error", err)
	}

	m.mu.Lock()
	m.generation++
	m.commitAndUnlock(domainauth.Unauthenticated())
	m.clearToken()

	m.logger.InfoContext(ctx, "signed out")
	m.emit(metrics.SessionTransition{
		Operation: "sign_out",
		Result:    result,
		To:        domainauth.StatusUnauthenticated.String(),
		Duration:  time.Since(start),
		Err:       err,
	})
	m.navigator.Navigate(m.signInPath)
}

// commitAndUnlock stores next, releases m.mu, and notifies listeners in commit order.
// m.mu must be held by the caller.
func (m *SessionManager) commitAndUnlock(next domainauth.State) {
	m.state = next
	fns := make([]func(domainauth.State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.emitMu.Lock()
	m.mu.Unlock()
	defer m.emitMu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

func (m *SessionManager) clearToken() {
	if m.tokens != nil {
		m.tokens.ClearToken()
	}
}

func (m *SessionManager) emit(t metrics.SessionTransition) {
	metrics.EmitSessionTransition(m.metrics, t)
}

// signInError converts any backend failure into an AppError whose Message is
// safe to show verbatim on the sign-in form.
func signInError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == apperrors.ErrCodeUnauthenticated {
			return &apperrors.AppError{
				Code:    apperrors.ErrCodeInvalidCredentials,
				Message: appErr.Message,
				Cause:   err,
				Status:  appErr.Status,
			}
		}
		return appErr
	}
	return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, apperrors.UserMessage(nil, apperrors.ErrCodeUnavailable))
}
