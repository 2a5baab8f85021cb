// Package gate decides what a page view shows for a given route and session
// state: the page, a loading indicator, a sign-in countdown, or nothing.
package gate

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/eventdesk/internal/domain/auth"
	"github.com/target/eventdesk/internal/domain/route"
	"github.com/target/eventdesk/internal/observability/metrics"
	"github.com/target/eventdesk/internal/observability/statsd"
	"github.com/target/eventdesk/internal/ports"
)

// DefaultCountdown is the number of seconds shown before redirecting to sign-in.
const DefaultCountdown = 3

// Kind is the visual outcome of a gate decision.
type Kind int

const (
	// Render shows the requested page.
	Render Kind = iota
	// Loading shows a verification-in-progress indicator.
	Loading
	// Countdown shows "redirecting to sign-in in N" and then redirects.
	Countdown
	// Withhold renders nothing while a landing redirect is under way.
	Withhold
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Countdown:
		return "countdown"
	case Withhold:
		return "withhold"
	default:
		return "render"
	}
}

// Decision is the outcome for one (path, state) pair.
type Decision struct {
	Kind  Kind
	Path  string
	Class route.Class
	// Remaining is the countdown value in seconds; zero unless Kind is Countdown.
	Remaining int
}

// Options configures a Gate.
type Options struct {
	Classifier *route.Classifier
	Navigator  ports.Navigator
	SignInPath string
	Countdown  int
	Clock      ports.Clock
	// OnChange is called with every new decision and every countdown tick.
	OnChange func(Decision)
	Metrics  statsd.Sink
	Logger   *slog.Logger
}

// Gate tracks the current route and session state of one tab and owns the
// sign-in countdown. It is safe for concurrent use.
type Gate struct {
	classifier *route.Classifier
	navigator  ports.Navigator
	signInPath string
	seconds    int
	clock      ports.Clock
	onChange   func(Decision)
	metrics    statsd.Sink
	logger     *slog.Logger

	mu      sync.Mutex
	path    string
	status  domainauth.Status
	current Decision
	task    *countdown
	closed  bool

	emitMu sync.Mutex
}

// countdown is one run of the sign-in countdown. A tick whose task is no longer
// g.task is stale and does nothing.
type countdown struct {
	remaining int
	timer     ports.Timer
}

// New returns a Gate with no route; call Update to start gating.
func New(opts Options) (*Gate, error) {
	if opts.Classifier == nil {
		return nil, errors.New("gate: classifier is required")
	}
	if opts.Navigator == nil {
		return nil, errors.New("gate: navigator is required")
	}
	g := &Gate{
		classifier: opts.Classifier,
		navigator:  opts.Navigator,
		signInPath: opts.SignInPath,
		seconds:    opts.Countdown,
		clock:      opts.Clock,
		onChange:   opts.OnChange,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
	if g.signInPath == "" {
		g.signInPath = domainauth.DefaultSignInPath
	}
	if g.seconds <= 0 {
		g.seconds = DefaultCountdown
	}
	if g.clock == nil {
		g.clock = ports.SystemClock{}
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.logger = g.logger.With("component", "view_gate")
	return g, nil
}

// Evaluate applies the decision table without side effects:
//
//  1. PUBLIC                                   -> Render
//  2. UNINITIALIZED or CHECKING, not AUTH_ONLY -> Loading
//  3. UNAUTHENTICATED, not AUTH_ONLY           -> Countdown
//  4. AUTHENTICATED on AUTH_ONLY               -> Withhold
//  5. otherwise                                -> Render
func (g *Gate) Evaluate(path string, state domainauth.State) Decision {
	return g.evaluate(path, state.Status)
}

func (g *Gate) evaluate(path string, status domainauth.Status) Decision {
	class := g.classifier.Classify(path)
	d := Decision{Kind: Render, Path: route.Normalize(path), Class: class}
	switch {
	case class == route.Public:
	case status == domainauth.StatusUninitialized || status == domainauth.StatusChecking:
		if class != route.AuthOnly {
			d.Kind = Loading
		}
	case status == domainauth.StatusUnauthenticated:
		if class != route.AuthOnly {
			d.Kind = Countdown
			d.Remaining = g.seconds
		}
	case status == domainauth.StatusAuthenticated && class == route.AuthOnly:
		d.Kind = Withhold
	}
	return d
}

// Current returns the last decision.
func (g *Gate) Current() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// SetPath re-evaluates after a route change. A running countdown is cancelled
// and, if the new route also needs one, restarted from the full value.
func (g *Gate) SetPath(path string) Decision {
	g.mu.Lock()
	return g.updateAndUnlock(path, g.status)
}

// SetState re-evaluates after a session state change.
func (g *Gate) SetState(state domainauth.State) Decision {
	g.mu.Lock()
	return g.updateAndUnlock(g.path, state.Status)
}

// Update sets both the route and the session state.
func (g *Gate) Update(path string, state domainauth.State) Decision {
	g.mu.Lock()
	return g.updateAndUnlock(path, state.Status)
}

// Close cancels any running countdown; later updates and ticks are ignored.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.cancelLocked()
}

func (g *Gate) updateAndUnlock(path string, status domainauth.Status) Decision {
	if g.closed {
		d := g.current
		g.mu.Unlock()
		return d
	}

	samePath := route.Normalize(path) == route.Normalize(g.path)
	sameStatus := status == g.status
	g.path = path
	g.status = status

	d := g.evaluate(path, status)
	if d.Kind == Countdown && samePath && sameStatus && g.current.Kind == Countdown {
		// Same countdown still applies; keep it running (or expired) as is.
		d.Remaining = g.current.Remaining
		g.current = d
		g.mu.Unlock()
		return d
	}

	g.cancelLocked()
	if d.Kind == Countdown {
		task := &countdown{remaining: d.Remaining}
		task.timer = g.clock.AfterFunc(time.Second, func() { g.tick(task) })
		g.task = task
	}

	changed := d != g.current
	g.current = d
	if !changed {
		g.mu.Unlock()
		return d
	}
	g.emitAndUnlock(d, false)
	return d
}

func (g *Gate) tick(task *countdown) {
	g.mu.Lock()
	if g.closed || g.task != task {
		g.mu.Unlock()
		return
	}

	task.remaining--
	g.current.Remaining = task.remaining
	d := g.current
	if task.remaining > 0 {
		task.timer = g.clock.AfterFunc(time.Second, func() { g.tick(task) })
		g.emitAndUnlock(d, false)
		return
	}

	g.task = nil
	g.logger.Info("countdown expired, redirecting to sign-in", "path", d.Path)
	metrics.EmitGateRedirect(g.metrics, d.Class.String())
	g.emitAndUnlock(d, true)
}

func (g *Gate) cancelLocked() {
	if g.task == nil {
		return
	}
	if g.task.timer != nil {
		g.task.timer.Stop()
	}
	g.task = nil
}

// emitAndUnlock releases g.mu and delivers d (and the sign-in redirect when
// redirect is set) in the order decisions were made.
func (g *Gate) emitAndUnlock(d Decision, redirect bool) {
	g.emitMu.Lock()
	g.mu.Unlock()
	defer g.emitMu.Unlock()

	if g.onChange != nil {
		g.onChange(d)
	}
	if redirect {
		g.navigator.Navigate(g.signInPath)
	}
}
