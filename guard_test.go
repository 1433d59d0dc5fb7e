package sdk

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGuardDecide(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	guard := NewGuard()
	guard.Now = func() time.Time { return now }

	anonymous := Session{}
	authed := Session{AccessToken: "at", ExpiresAt: now.Add(time.Hour)}
	expired := Session{AccessToken: "at", ExpiresAt: now.Add(-time.Hour)}
	protected := Route{Name: "Dashboard", Path: "/dashboard", Meta: RouteClassification{RequiresAuth: true}}
	guest := Route{Name: "Login", Path: "/login", Meta: RouteClassification{RequiresGuest: true}}
	public := Route{Name: "About", Path: "/about"}

	cases := []struct {
		name   string
		target Route
		sess   Session
		want   Decision
	}{
		{"protected route, anonymous", protected, anonymous, Decision{RedirectTo: "/login"}},
		{"protected route, expired session", protected, expired, Decision{RedirectTo: "/login"}},
		{"protected route, authenticated", protected, authed, Decision{Allow: true}},
		{"guest route, authenticated", guest, authed, Decision{RedirectTo: "/dashboard"}},
		{"guest route, anonymous", guest, anonymous, Decision{Allow: true}},
		{"guest route, expired session", guest, expired, Decision{Allow: true}},
		{"public route, anonymous", public, anonymous, Decision{Allow: true}},
		{"public route, authenticated", public, authed, Decision{Allow: true}},
	}
	for _, tc := range cases {
		if got := guard.Decide(tc.target, public, tc.sess); got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestGuardAdminGating(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	guard := NewGuard()
	guard.Now = func() time.Time { return now }
	admin := Route{Name: "Settings", Path: "/settings", Meta: RouteClassification{RequiresAuth: true, RequiresAdmin: true}}
	from := Route{Name: "Dashboard", Path: "/dashboard"}

	withAuthorities := func(authorities []string) Session {
		return Session{
			AccessToken: "at",
			ExpiresAt:   now.Add(time.Hour),
			User:        &UserProfile{Username: "jdoe", Authorities: authorities},
		}
	}

	if got := guard.Decide(admin, from, Session{}); got.RedirectTo != "/login" {
		t.Fatalf("anonymous admin access: %+v", got)
	}
	if got := guard.Decide(admin, from, withAuthorities([]string{"ROLE_ADMIN", "ROLE_USER"})); !got.Allow {
		t.Fatalf("admin authority rejected: %+v", got)
	}
	if got := guard.Decide(admin, from, withAuthorities([]string{"ROLE_USER"})); got.RedirectTo != "/dashboard" {
		t.Fatalf("missing admin authority allowed: %+v", got)
	}
	// No authority set available: degrade to any-authenticated.
	noAuthorities := Session{AccessToken: "opaque-token", ExpiresAt: now.Add(time.Hour)}
	if got := guard.Decide(admin, from, noAuthorities); !got.Allow {
		t.Fatalf("degraded admin gating rejected: %+v", got)
	}
}

func TestSessionAuthoritiesFromAccessTokenClaims(t *testing.T) {
	claims := Claims{
		Username:    "jdoe",
		Authorities: []string{"ROLE_ADMIN"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "jdoe",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	sess := Session{AccessToken: token}
	got := sess.Authorities()
	if len(got) != 1 || got[0] != "ROLE_ADMIN" {
		t.Fatalf("unexpected authorities %v", got)
	}

	decoded, err := DecodeClaims(token)
	if err != nil {
		t.Fatalf("decode claims: %v", err)
	}
	if decoded.Username != "jdoe" {
		t.Fatalf("unexpected claims %+v", decoded)
	}

	// Cached profile authorities take precedence over token claims.
	sess.User = &UserProfile{Authorities: []string{"ROLE_USER"}}
	if got := sess.Authorities(); len(got) != 1 || got[0] != "ROLE_USER" {
		t.Fatalf("profile authorities not preferred: %v", got)
	}

	// Opaque (non-JWT) tokens yield no authority set.
	if got := (Session{AccessToken: "opaque"}).Authorities(); got != nil {
		t.Fatalf("expected nil authorities for opaque token, got %v", got)
	}
}
