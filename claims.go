package sdk

import "github.com/golang-jwt/jwt/v5"

// Claims encodes the JWT claims embedded into Paylith access tokens.
//
// This is a DTO matching the IAM service's access token contract; the SDK
// keeps it local so clients need no server-side modules.
type Claims struct {
	Username    string   `json:"preferred_username,omitempty"`
	UserUUID    string   `json:"uid,omitempty"`
	Authorities []string `json:"authorities,omitempty"`
	Scope       string   `json:"scope,omitempty"`

	jwt.RegisteredClaims
}

// DecodeClaims parses the access token payload without verifying the
// signature. The client holds no signing key; verification is the backend's
// job, and the decoded claims are advisory (route gating, display).
func DecodeClaims(accessToken string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// Authorities returns the session's authority set: the cached profile's
// authorities when present, otherwise the authorities claim decoded from the
// access token. Returns nil when neither is available.
func (s Session) Authorities() []string {
	if s.User != nil && len(s.User.Authorities) > 0 {
		return s.User.Authorities
	}
	if s.AccessToken == "" {
		return nil
	}
	claims, err := DecodeClaims(s.AccessToken)
	if err != nil {
		return nil
	}
	return claims.Authorities
}
