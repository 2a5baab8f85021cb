package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	domainauth "github.com/target/eventdesk/internal/domain/auth"
	"github.com/target/eventdesk/internal/domain/route"
	apperrors "github.com/target/eventdesk/internal/errors"
	"github.com/target/eventdesk/internal/http/ui/gate"
	"github.com/target/eventdesk/internal/observability/statsd"
	"github.com/target/eventdesk/internal/ports"
	"github.com/target/eventdesk/internal/service"
)

// View is what a Renderer needs to produce page content.
type View struct {
	Path     string
	Class    route.Class
	Identity *domainauth.Identity
	// Unmapped marks a protected route outside the known page set.
	Unmapped bool
}

// Content is a rendered page fragment.
type Content struct {
	Page string
	HTML string
}

// Renderer renders the page for a route.
type Renderer interface {
	Render(ctx context.Context, v View) (Content, error)
}

// TokenSource is the tab's copy of the session token, held for backend calls.
type TokenSource interface {
	Token() string
	ClearToken()
}

// TabOptions configures a Tab.
type TabOptions struct {
	Backend    ports.AuthBackend
	Tokens     TokenSource
	Handoff    ports.HandoffStore
	Classifier *route.Classifier
	Landing    domainauth.LandingPolicy
	SignInPath string
	Countdown  int
	Clock      ports.Clock
	Renderer   Renderer
	Transport  Transport
	Metrics    statsd.Sink
	Logger     *slog.Logger
	// InitialPath is the route the tab was opened on.
	InitialPath string
}

// Tab is the server-side half of one browser tab. It owns the tab's
// SessionManager and Gate and translates their output into frames.
type Tab struct {
	manager    *service.SessionManager
	classifier *route.Classifier
	gate       *gate.Gate
	tokens     TokenSource
	handoff    ports.HandoffStore
	renderer   Renderer
	transport  Transport
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	path  string
	state domainauth.State

	unsubscribe func()
	closeOnce   sync.Once
}

// NewTab wires a SessionManager and Gate around opts.Transport.
func NewTab(opts TabOptions) (*Tab, error) {
	if opts.Backend == nil || opts.Tokens == nil || opts.Handoff == nil {
		return nil, errors.New("live: backend, tokens and handoff are required")
	}
	if opts.Renderer == nil || opts.Transport == nil {
		return nil, errors.New("live: renderer and transport are required")
	}
	if opts.Classifier == nil {
		return nil, errors.New("live: classifier is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	t := &Tab{
		classifier: opts.Classifier,
		tokens:     opts.Tokens,
		handoff:    opts.Handoff,
		renderer:   opts.Renderer,
		transport:  opts.Transport,
		logger:     logger.With("component", "live_tab"),
		path:       route.Normalize(opts.InitialPath),
	}
	if t.path == "" {
		t.path = "/"
	}

	mgr, err := service.NewSessionManager(service.SessionManagerOptions{
		Backend:    &handoffBackend{AuthBackend: opts.Backend, tab: t},
		Navigator:  t,
		Tokens:     t,
		Location:   t,
		Classifier: opts.Classifier,
		Landing:    opts.Landing,
		SignInPath: opts.SignInPath,
		Metrics:    opts.Metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	g, err := gate.New(gate.Options{
		Classifier: opts.Classifier,
		Navigator:  t,
		SignInPath: opts.SignInPath,
		Countdown:  opts.Countdown,
		Clock:      opts.Clock,
		OnChange:   t.onDecision,
		Metrics:    opts.Metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	t.manager = mgr
	t.gate = g
	return t, nil
}

// Run shows the initial view, starts verification, and processes browser
// messages until the transport fails, ctx ends, or the browser goes away.
func (t *Tab) Run(ctx context.Context) error {
	t.ctx, t.cancel = context.WithCancel(ctx)
	defer t.Close()

	t.unsubscribe = t.manager.Subscribe(func(s domainauth.State) {
		t.mu.Lock()
		t.state = s
		t.mu.Unlock()
		t.gate.SetState(s)
	})
	t.gate.Update(t.CurrentPath(), t.manager.State())
	t.spawn(func(ctx context.Context) { t.manager.Mount(ctx) })

	go func() {
		<-t.ctx.Done()
		_ = t.transport.Close()
	}()

	for {
		msg, err := t.transport.ReadMessage()
		if err != nil {
			if errors.Is(err, ErrClosed) || t.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		t.handle(msg)
	}
}

// Close stops the countdown, waits for in-flight backend calls, and releases the transport.
func (t *Tab) Close() {
	t.closeOnce.Do(func() {
		if t.cancel != nil {
			t.cancel()
		}
		t.gate.Close()
		if t.unsubscribe != nil {
			t.unsubscribe()
		}
		t.wg.Wait()
		_ = t.transport.Close()
	})
}

// State returns the tab's last observed auth state.
func (t *Tab) State() domainauth.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tab) handle(msg Message) {
	switch msg.Type {
	case MessageRoute:
		p := route.Normalize(msg.Path)
		if p == "" {
			return
		}
		t.mu.Lock()
		t.path = p
		t.mu.Unlock()
		t.gate.SetPath(p)
	case MessageSignIn:
		creds := domainauth.Credentials{Email: msg.Email, Password: msg.Password}
		t.spawn(func(ctx context.Context) {
			err := t.manager.SignIn(ctx, creds)
			res := Frame{Kind: FrameSignInResult, OK: err == nil}
			if err != nil {
				res.Message = apperrors.UserMessage(err, apperrors.ErrCodeUnavailable)
			}
			t.write(res)
		})
	case MessageSignOut:
		t.spawn(func(ctx context.Context) { t.manager.SignOut(ctx) })
	case MessageCheckAuth:
		t.spawn(func(ctx context.Context) { t.manager.CheckAuth(ctx) })
	default:
		t.logger.Debug("ignoring unknown message", "type", string(msg.Type))
	}
}

func (t *Tab) spawn(fn func(ctx context.Context)) {
	if t.ctx.Err() != nil {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn(t.ctx)
	}()
}

func (t *Tab) onDecision(d gate.Decision) {
	switch d.Kind {
	case gate.Loading:
		t.write(Frame{Kind: FrameLoading})
	case gate.Countdown:
		t.write(Frame{Kind: FrameCountdown, Seconds: d.Remaining})
	case gate.Withhold:
		t.write(Frame{Kind: FrameWithhold})
	case gate.Render:
		t.mu.Lock()
		id := t.state.Identity
		t.mu.Unlock()
		ctx := t.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		c, err := t.renderer.Render(ctx, View{
			Path:     d.Path,
			Class:    d.Class,
			Identity: id,
			Unmapped: d.Class == route.Protected && !t.classifier.IsKnownProtected(d.Path),
		})
		if err != nil {
			t.logger.Error("render page", "path", d.Path, "error", err)
			return
		}
		t.write(Frame{Kind: FrameContent, Page: c.Page, HTML: c.HTML})
	}
}

func (t *Tab) write(f Frame) {
	if err := t.transport.WriteFrame(f); err != nil {
		t.logger.Debug("write frame", "kind", string(f.Kind), "error", err)
		if t.cancel != nil {
			t.cancel()
		}
	}
}

// Navigate asks the browser to change route. The browser reports the new
// route back with a route message.
func (t *Tab) Navigate(path string) {
	t.write(Frame{Kind: FrameNavigate, To: path})
}

// ClearToken drops the tab's token and tells the browser to clear its cookie.
func (t *Tab) ClearToken() {
	t.tokens.ClearToken()
	t.write(Frame{Kind: FrameClearToken})
}

// CurrentPath returns the tab's current route.
func (t *Tab) CurrentPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path
}

// handoffBackend hands a freshly issued session token to the browser before
// SignIn returns, so the cookie is in place before any landing navigation.
type handoffBackend struct {
	ports.AuthBackend
	tab *Tab
}

func (b *handoffBackend) SignIn(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error) {
	id, err := b.AuthBackend.SignIn(ctx, creds)
	if err != nil {
		return id, err
	}
	token := strings.TrimSpace(b.tab.tokens.Token())
	if token == "" {
		return domainauth.Identity{}, apperrors.New(apperrors.ErrCodeUnavailable, "sign in did not return a session")
	}
	ticket, err := b.tab.handoff.Issue(ctx, token)
	if err != nil {
		// The browser will never receive this session; drop it on both sides.
		if serr := b.AuthBackend.SignOut(ctx); serr != nil {
			b.tab.logger.Warn("sign out after failed handoff", "error", serr)
		}
		b.tab.tokens.ClearToken()
		return domainauth.Identity{}, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, apperrors.UserMessage(nil, apperrors.ErrCodeUnavailable))
	}
	b.tab.write(Frame{Kind: FrameToken, Ticket: ticket})
	return id, nil
}
