package auth

const (
	// DefaultRootPath is the application root every non-admin lands on.
	DefaultRootPath = "/"
	// DefaultDashboardPath is the administrator landing page.
	DefaultDashboardPath = "/dashboard"
	// DefaultSignInPath is where unauthenticated visitors are sent.
	DefaultSignInPath = "/sign-in"
)

// LandingPolicy decides where a freshly authenticated user is sent.
// Both verification and sign-in use the same policy value.
type LandingPolicy struct {
	RootPath      string
	DashboardPath string
}

// DefaultLandingPolicy returns the application's landing paths.
func DefaultLandingPolicy() LandingPolicy {
	return LandingPolicy{RootPath: DefaultRootPath, DashboardPath: DefaultDashboardPath}
}

// For returns the landing path for role: administrators go to the dashboard,
// every other role to the application root.
func (p LandingPolicy) For(role Role) string {
	root := p.RootPath
	if root == "" {
		root = DefaultRootPath
	}
	if !role.IsAdmin() {
		return root
	}
	if p.DashboardPath == "" {
		return DefaultDashboardPath
	}
	return p.DashboardPath
}
