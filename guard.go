package sdk

import "time"

// RouteClassification is the static per-route metadata consumed by the
// guard. At most one of RequiresAuth/RequiresGuest is meaningful per route;
// both false means public.
type RouteClassification struct {
	RequiresAuth  bool
	RequiresGuest bool
	RequiresAdmin bool
}

// Route identifies a navigable view and its classification.
type Route struct {
	Name string
	Path string
	Meta RouteClassification
}

// Decision is the guard's verdict: allow the transition or redirect.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Guard gates route transitions based on session state and route
// classification. Decide is pure: it is evaluated synchronously against the
// caller's cached session and performs no I/O, in particular no implicit
// refresh-on-navigate.
type Guard struct {
	// LoginPath is the redirect target for unauthenticated access to
	// protected routes.
	LoginPath string
	// HomePath is the default authenticated landing route, used when an
	// authenticated session hits a guest-only route.
	HomePath string
	// AdminAuthority is the authority required by admin-gated routes.
	// Admin gating degrades to any-authenticated when the session exposes
	// no authority set at all.
	AdminAuthority string
	// Now injects a clock for tests. Defaults to time.Now.
	Now func() time.Time
}

const (
	defaultLoginPath      = "/login"
	defaultHomePath       = "/dashboard"
	defaultAdminAuthority = "ROLE_ADMIN"
)

// NewGuard returns a Guard with the default login/landing routes and admin
// authority.
func NewGuard() Guard {
	return Guard{
		LoginPath:      defaultLoginPath,
		HomePath:       defaultHomePath,
		AdminAuthority: defaultAdminAuthority,
	}
}

// Decide evaluates a transition from current to target under the given
// session. An expired session counts as anonymous; its payload is not
// cleared here.
func (g Guard) Decide(target, current Route, session Session) Decision {
	_ = current // reserved for transition-aware policies
	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}
	authed := session.Authenticated(now)
	if (target.Meta.RequiresAuth || target.Meta.RequiresAdmin) && !authed {
		return Decision{RedirectTo: g.loginPath()}
	}
	if target.Meta.RequiresGuest && authed {
		return Decision{RedirectTo: g.homePath()}
	}
	if target.Meta.RequiresAdmin {
		authorities := session.Authorities()
		if len(authorities) > 0 && !containsString(authorities, g.adminAuthority()) {
			return Decision{RedirectTo: g.homePath()}
		}
	}
	return Decision{Allow: true}
}

func (g Guard) loginPath() string {
	if g.LoginPath != "" {
		return g.LoginPath
	}
	return defaultLoginPath
}

func (g Guard) homePath() string {
	if g.HomePath != "" {
		return g.HomePath
	}
	return defaultHomePath
}

func (g Guard) adminAuthority() string {
	if g.AdminAuthority != "" {
		return g.AdminAuthority
	}
	return defaultAdminAuthority
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
