package sdk

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is a cached snapshot of the authenticated user. It may lag the
// backend's copy until the next profile fetch.
type UserProfile struct {
	UUID         uuid.UUID `json:"uuid,omitempty"`
	Username     string    `json:"username,omitempty"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	MobileNumber string    `json:"mobileNumber,omitempty"`
	Authorities  []string  `json:"authorities,omitempty"`
}

// looksLikeUser filters envelope decodes that matched structurally but carry
// no identifying fields.
func (p UserProfile) looksLikeUser() bool {
	return p.UUID != uuid.Nil || p.Username != "" || p.Email != "" || p.Name != ""
}

// Session is the authoritative credential record.
//
// An absent AccessToken makes the session anonymous. A present AccessToken
// makes it authenticated unless ExpiresAt has passed, in which case the
// session is expired and treated as anonymous for guard purposes; the stale
// payload is preserved until an explicit clear.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	// ExpiresAt is the absolute expiry instant. The zero value means the
	// session never expires.
	ExpiresAt time.Time
	User      *UserProfile
}

// IsZero reports whether the session carries no state at all.
func (s Session) IsZero() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.TokenType == "" &&
		s.ExpiresAt.IsZero() && s.User == nil
}

// Expired reports whether the session has an expiry and it has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Authenticated reports whether the session holds a usable credential:
// an access token is present and any expiry lies in the future.
func (s Session) Authenticated(now time.Time) bool {
	return s.AccessToken != "" && !s.Expired(now)
}
