package gate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/eventdesk/internal/domain/auth"
	"github.com/target/eventdesk/internal/domain/route"
	mockauth "github.com/target/eventdesk/internal/mocks/auth"
	"github.com/target/eventdesk/internal/testutil"
)

type recorder struct {
	mu        sync.Mutex
	decisions []Decision
}

func (r *recorder) record(d Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)
}

func (r *recorder) remaining() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, d := range r.decisions {
		if d.Kind == Countdown {
			out = append(out, d.Remaining)
		}
	}
	return out
}

type fixture struct {
	gate  *Gate
	clock *testutil.FakeClock
	nav   *mockauth.RecordingNavigator
	rec   *recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		clock: testutil.NewFakeClock(),
		nav:   &mockauth.RecordingNavigator{},
		rec:   &recorder{},
	}
	g, err := New(Options{
		Classifier: route.NewClassifier(route.DefaultPolicy()),
		Navigator:  f.nav,
		Clock:      f.clock,
		OnChange:   f.rec.record,
	})
	require.NoError(t, err)
	f.gate = g
	return f
}

func state(s domainauth.Status) domainauth.State {
	st := domainauth.State{Status: s}
	if s == domainauth.StatusAuthenticated {
		st.Identity = &domainauth.Identity{ID: "u-1", Role: domainauth.RoleUser}
	}
	return st
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{Navigator: &mockauth.RecordingNavigator{}})
	require.Error(t, err)
	_, err = New(Options{Classifier: route.NewClassifier(route.DefaultPolicy())})
	require.Error(t, err)

	g, err := New(Options{Classifier: route.NewClassifier(route.DefaultPolicy()), Navigator: &mockauth.RecordingNavigator{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultCountdown, g.seconds)
	assert.Equal(t, "/sign-in", g.signInPath)
}

func TestEvaluate_DecisionTable(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		path   string
		status domainauth.Status
		want   Kind
	}{
		{name: "public while checking", path: "/public/events/42", status: domainauth.StatusChecking, want: Render},
		{name: "public unauthenticated", path: "/check-in/abc", status: domainauth.StatusUnauthenticated, want: Render},
		{name: "public authenticated", path: "/public", status: domainauth.StatusAuthenticated, want: Render},
		{name: "protected uninitialized", path: "/events", status: domainauth.StatusUninitialized, want: Loading},
		{name: "protected checking", path: "/budget/2024", status: domainauth.StatusChecking, want: Loading},
		{name: "unknown path checking", path: "/settings", status: domainauth.StatusChecking, want: Loading},
		{name: "auth-only checking", path: "/sign-in", status: domainauth.StatusChecking, want: Render},
		{name: "protected unauthenticated", path: "/role", status: domainauth.StatusUnauthenticated, want: Countdown},
		{name: "auth-only unauthenticated", path: "/sign-up", status: domainauth.StatusUnauthenticated, want: Render},
		{name: "auth-only authenticated", path: "/check-email", status: domainauth.StatusAuthenticated, want: Withhold},
		{name: "protected authenticated", path: "/dashboard", status: domainauth.StatusAuthenticated, want: Render},
		{name: "empty path unauthenticated", path: "", status: domainauth.StatusUnauthenticated, want: Countdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := f.gate.Evaluate(tt.path, state(tt.status))
			assert.Equal(t, tt.want, d.Kind)
			if tt.want == Countdown {
				assert.Equal(t, DefaultCountdown, d.Remaining)
			} else {
				assert.Zero(t, d.Remaining)
			}
		})
	}
	assert.Zero(t, f.clock.Pending(), "Evaluate must not start timers")
}

func TestCountdown_RedirectsOnceAfterThreeTicks(t *testing.T) {
	f := newFixture(t)

	d := f.gate.Update("/budget", state(domainauth.StatusUnauthenticated))
	assert.Equal(t, Countdown, d.Kind)
	assert.Equal(t, 3, d.Remaining)

	f.clock.Advance(time.Second)
	f.clock.Advance(time.Second)
	assert.Empty(t, f.nav.Paths())

	f.clock.Advance(time.Second)
	assert.Equal(t, []string{"/sign-in"}, f.nav.Paths())
	assert.Equal(t, []int{3, 2, 1, 0}, f.rec.remaining())

	f.clock.Advance(10 * time.Second)
	assert.Equal(t, []string{"/sign-in"}, f.nav.Paths(), "redirect fires exactly once")
	assert.Zero(t, f.clock.Pending())

	// Re-asserting the same route and state does not restart an expired countdown.
	f.gate.SetState(state(domainauth.StatusUnauthenticated))
	f.clock.Advance(10 * time.Second)
	assert.Equal(t, []string{"/sign-in"}, f.nav.Paths())
}

func TestCountdown_CancelledByStateChange(t *testing.T) {
	f := newFixture(t)

	f.gate.Update("/events", state(domainauth.StatusUnauthenticated))
	f.clock.Advance(time.Second)

	d := f.gate.SetState(state(domainauth.StatusAuthenticated))
	assert.Equal(t, Render, d.Kind)

	f.clock.Advance(5 * time.Second)
	assert.Empty(t, f.nav.Paths())
	assert.Zero(t, f.clock.Pending())
}

func TestCountdown_CancelledByRouteChange(t *testing.T) {
	f := newFixture(t)

	f.gate.Update("/events", state(domainauth.StatusUnauthenticated))
	f.clock.Advance(2 * time.Second)

	d := f.gate.SetPath("/public/events/7")
	assert.Equal(t, Render, d.Kind)

	f.clock.Advance(5 * time.Second)
	assert.Empty(t, f.nav.Paths())
}

func TestCountdown_RouteChangeRestartsCountdown(t *testing.T) {
	f := newFixture(t)

	f.gate.Update("/events", state(domainauth.StatusUnauthenticated))
	f.clock.Advance(2 * time.Second)

	d := f.gate.SetPath("/budget")
	assert.Equal(t, Countdown, d.Kind)
	assert.Equal(t, 3, d.Remaining)

	f.clock.Advance(2 * time.Second)
	assert.Empty(t, f.nav.Paths())
	f.clock.Advance(time.Second)
	assert.Equal(t, []string{"/sign-in"}, f.nav.Paths())
}

func TestCountdown_CancelledByClose(t *testing.T) {
	f := newFixture(t)

	f.gate.Update("/home", state(domainauth.StatusUnauthenticated))
	f.gate.Close()
	f.clock.Advance(5 * time.Second)

	assert.Empty(t, f.nav.Paths())
	assert.Zero(t, f.clock.Pending())

	d := f.gate.SetState(state(domainauth.StatusUnauthenticated))
	assert.Equal(t, Countdown, d.Kind, "closed gate keeps its last decision")
	assert.Zero(t, f.clock.Pending())
}

func TestUpdate_SessionLifecycle(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, Loading, f.gate.Update("/dashboard", state(domainauth.StatusUninitialized)).Kind)
	assert.Equal(t, Loading, f.gate.SetState(state(domainauth.StatusChecking)).Kind)
	assert.Equal(t, Render, f.gate.SetState(state(domainauth.StatusAuthenticated)).Kind)
	assert.Equal(t, Withhold, f.gate.SetPath("/sign-in").Kind)
	assert.Equal(t, Render, f.gate.SetPath("/").Kind)

	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	require.Len(t, f.rec.decisions, 4, "unchanged decisions are not re-emitted")
	assert.Equal(t, Loading, f.rec.decisions[0].Kind)
	assert.Equal(t, Render, f.rec.decisions[1].Kind)
	assert.Equal(t, Withhold, f.rec.decisions[2].Kind)
	assert.Equal(t, "/", f.rec.decisions[3].Path)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "render", Render.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "countdown", Countdown.String())
	assert.Equal(t, "withhold", Withhold.String())
}
