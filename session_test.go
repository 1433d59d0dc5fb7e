package sdk

import (
	"testing"
	"time"
)

func TestSessionAuthenticated(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		sess Session
		want bool
	}{
		{"empty", Session{}, false},
		{"token without expiry", Session{AccessToken: "at"}, true},
		{"token with future expiry", Session{AccessToken: "at", ExpiresAt: now.Add(time.Minute)}, true},
		{"token with past expiry", Session{AccessToken: "at", ExpiresAt: now.Add(-time.Minute)}, false},
		{"token expiring exactly now", Session{AccessToken: "at", ExpiresAt: now}, false},
		{"expired despite other fields", Session{
			AccessToken:  "at",
			RefreshToken: "rt",
			ExpiresAt:    now.Add(-time.Second),
			User:         &UserProfile{Username: "jdoe"},
		}, false},
		{"no token despite other fields", Session{
			RefreshToken: "rt",
			User:         &UserProfile{Username: "jdoe"},
		}, false},
	}
	for _, tc := range cases {
		if got := tc.sess.Authenticated(now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestExpiredSessionPreservesPayload(t *testing.T) {
	now := time.Now()
	sess := Session{AccessToken: "at", RefreshToken: "rt", ExpiresAt: now.Add(-time.Hour)}
	if !sess.Expired(now) {
		t.Fatalf("expected expired session")
	}
	// Expiry changes the guard verdict, not the stored payload.
	if sess.AccessToken != "at" || sess.RefreshToken != "rt" {
		t.Fatalf("payload mutated: %+v", sess)
	}
}
