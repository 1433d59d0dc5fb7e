package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paylith/paylith-go/routes"
)

// Default client identity sent as Basic authentication to the token endpoint
// when the caller supplies none.
const (
	DefaultClientID     = "paylith-web"
	DefaultClientSecret = "paylith-web-secret"
)

// OAuth2 grant types understood by the token endpoint.
const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
)

// PasswordCredentials is the password-grant login shape. GrantType,
// ClientID, and ClientSecret fall back to defaults when empty.
type PasswordCredentials struct {
	Username     string
	Password     string
	GrantType    string
	ClientID     string
	ClientSecret string
}

// MobileCredentials is the mobile number + PIN login shape.
type MobileCredentials struct {
	MobileNumber string `json:"mobileNumber"`
	PIN          string `json:"pin"`
}

// ResetPasswordRequest completes the password-reset flow with the OTP sent
// by ForgotPassword.
type ResetPasswordRequest struct {
	Username    string `json:"username"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// AuthClient owns the session lifecycle: login, refresh, logout, and the
// current-user flows. It keeps the client's cached session consistent with
// the TokenStore on every mutation.
type AuthClient struct {
	client *Client
}

// tokenEnvelope tolerates the nesting shapes the token endpoint emits:
// fields at the top level or wrapped in a data envelope, with "token" as a
// legacy alias for "access_token". The data envelope takes precedence.
type tokenEnvelope struct {
	AccessToken  string         `json:"access_token"`
	Token        string         `json:"token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *UserProfile   `json:"user"`
	Data         *tokenEnvelope `json:"data"`
}

func (e *tokenEnvelope) accessToken() string {
	if e.AccessToken != "" {
		return e.AccessToken
	}
	return e.Token
}

func (e *tokenEnvelope) unwrap() *tokenEnvelope {
	if e.Data != nil && e.Data.accessToken() != "" {
		return e.Data.unwrap()
	}
	return e
}

// Login exchanges password-grant credentials for a session. The request is
// form-encoded with Basic client authentication. On success the session is
// persisted; when the response embeds no profile, a follow-up profile fetch
// runs and its failure is logged, not returned.
func (a *AuthClient) Login(ctx context.Context, creds PasswordCredentials) (Session, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return Session{}, ConfigError{Reason: "username and password required"}
	}
	epoch := a.client.sessionEpoch()
	grant := creds.GrantType
	if grant == "" {
		grant = GrantPassword
	}
	form := url.Values{}
	form.Set("grant_type", grant)
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)
	req, err := a.client.newFormRequest(ctx, routes.AuthToken, form)
	if err != nil {
		return Session{}, err
	}
	clientID := creds.ClientID
	if clientID == "" {
		clientID = a.client.clientID
	}
	clientSecret := creds.ClientSecret
	if clientSecret == "" {
		clientSecret = a.client.clientSecret
	}
	req.SetBasicAuth(clientID, clientSecret)
	sess, err := a.exchangeToken(req)
	if err != nil {
		return Session{}, asInvalidCredentials(err)
	}
	if sess.IsZero() {
		return Session{}, TransportError{Kind: KindClientError, Message: "token endpoint returned no access token"}
	}
	return a.completeLogin(ctx, sess, epoch)
}

// LoginWithPIN exchanges a mobile number and PIN for a session.
func (a *AuthClient) LoginWithPIN(ctx context.Context, creds MobileCredentials) (Session, error) {
	if strings.TrimSpace(creds.MobileNumber) == "" || creds.PIN == "" {
		return Session{}, ConfigError{Reason: "mobile number and PIN required"}
	}
	epoch := a.client.sessionEpoch()
	req, err := a.client.newJSONRequest(ctx, http.MethodPost, routes.AuthTokenMobile, creds)
	if err != nil {
		return Session{}, err
	}
	req.SetBasicAuth(a.client.clientID, a.client.clientSecret)
	sess, err := a.exchangeToken(req)
	if err != nil {
		return Session{}, asInvalidCredentials(err)
	}
	if sess.IsZero() {
		return Session{}, TransportError{Kind: KindClientError, Message: "token endpoint returned no access token"}
	}
	return a.completeLogin(ctx, sess, epoch)
}

// VerifyTwoFactor submits the second-factor OTP. Session state changes only
// when the response carries a token pair; a bare acknowledgement returns a
// zero session and leaves the current state untouched.
func (a *AuthClient) VerifyTwoFactor(ctx context.Context, otp, username string) (Session, error) {
	payload := struct {
		Username string `json:"username"`
		OTP      string `json:"otp"`
	}{Username: username, OTP: otp}
	epoch := a.client.sessionEpoch()
	req, err := a.client.newJSONRequest(ctx, http.MethodPost, routes.OTPVerify, payload)
	if err != nil {
		return Session{}, err
	}
	sess, err := a.exchangeToken(req)
	if err != nil {
		return Session{}, asInvalidCredentials(err)
	}
	if sess.IsZero() {
		return Session{}, nil
	}
	return a.completeLogin(ctx, sess, epoch)
}

// ResendOTP requests a fresh one-time password for the given user.
func (a *AuthClient) ResendOTP(ctx context.Context, username string) error {
	payload := struct {
		Username string `json:"username"`
	}{Username: username}
	req, err := a.client.newJSONRequest(ctx, http.MethodPost, routes.OTPResend, payload)
	if err != nil {
		return err
	}
	resp, err := a.client.send(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Refresh swaps the held refresh token for a new token pair. On failure the
// caller is expected to fall back to Logout; Refresh itself mutates nothing.
func (a *AuthClient) Refresh(ctx context.Context) (Session, error) {
	current, epoch := a.client.snapshot()
	if current.RefreshToken == "" {
		return Session{}, TransportError{Kind: KindSessionExpired, Message: "no refresh token held"}
	}
	form := url.Values{}
	form.Set("grant_type", GrantRefreshToken)
	form.Set("refresh_token", current.RefreshToken)
	req, err := a.client.newFormRequest(ctx, routes.AuthToken, form)
	if err != nil {
		return Session{}, err
	}
	req.SetBasicAuth(a.client.clientID, a.client.clientSecret)
	sess, err := a.exchangeToken(req)
	if err != nil {
		return Session{}, asInvalidCredentials(err)
	}
	if sess.IsZero() {
		return Session{}, TransportError{Kind: KindClientError, Message: "token endpoint returned no access token"}
	}
	// The endpoint may rotate the refresh token; keep the old one otherwise.
	if sess.RefreshToken == "" {
		sess.RefreshToken = current.RefreshToken
	}
	if sess.User == nil {
		sess.User = current.User
	}
	if err := a.client.commitSession(sess, epoch); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Logout performs best-effort remote invalidation and unconditionally clears
// the TokenStore and the in-memory session. Remote failures are logged and
// never surfaced: logout is side-effect-complete even offline.
func (a *AuthClient) Logout(ctx context.Context) {
	if a.client.Session().AccessToken != "" {
		req, err := a.client.newJSONRequest(ctx, http.MethodPost, routes.AuthLogout, nil)
		if err != nil {
			a.client.logger.Warn().Err(err).Msg("remote logout")
		} else if resp, err := a.client.send(req); err != nil {
			a.client.logger.Warn().Err(err).Msg("remote logout")
		} else {
			_ = resp.Body.Close()
		}
	}
	a.client.clearSession()
}

// FetchCurrentUser fetches the authenticated user's profile and caches it on
// the session. A 401 triggers Logout before the error propagates so a stale
// or forged token cannot linger.
func (a *AuthClient) FetchCurrentUser(ctx context.Context) (UserProfile, error) {
	req, err := a.client.newJSONRequest(ctx, http.MethodGet, routes.UserProfile, nil)
	if err != nil {
		return UserProfile{}, err
	}
	resp, err := a.client.send(req)
	if err != nil {
		if IsSessionExpired(err) {
			a.Logout(ctx)
		}
		return UserProfile{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	profile, err := decodeProfileEnvelope(resp.Body)
	if err != nil {
		return UserProfile{}, err
	}
	sess, epoch := a.client.snapshot()
	sess.User = &profile
	if err := a.client.commitSession(sess, epoch); err != nil && !errors.Is(err, ErrSessionCleared) {
		a.client.logger.Warn().Err(err).Msg("cache user profile")
	}
	return profile, nil
}

// ForgotPassword starts the password-reset flow; the backend sends an OTP to
// the user's registered contact.
func (a *AuthClient) ForgotPassword(ctx context.Context, username string) error {
	q := url.Values{}
	q.Set("username", username)
	req, err := a.client.newJSONRequest(ctx, http.MethodPost, routes.ForgotPassword+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := a.client.send(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// ResetPassword completes the password-reset flow.
func (a *AuthClient) ResetPassword(ctx context.Context, reset ResetPasswordRequest) error {
	req, err := a.client.newJSONRequest(ctx, http.MethodPost, routes.ResetPassword, reset)
	if err != nil {
		return err
	}
	resp, err := a.client.send(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// IsAuthenticated reports whether the cached session holds a non-expired
// access token. It never touches the network.
func (a *AuthClient) IsAuthenticated() bool {
	return a.client.Session().Authenticated(a.client.now())
}

// AccessToken returns the cached access token, empty when anonymous.
func (a *AuthClient) AccessToken() string {
	return a.client.Session().AccessToken
}

// RefreshToken returns the cached refresh token, empty when absent.
func (a *AuthClient) RefreshToken() string {
	return a.client.Session().RefreshToken
}

// CurrentUser returns the cached profile snapshot, nil when absent.
func (a *AuthClient) CurrentUser() *UserProfile {
	return a.client.Session().User
}

// exchangeToken sends a prepared token request and decodes the tolerant
// envelope into an uncommitted session. A response without an access token
// yields a zero session.
func (a *AuthClient) exchangeToken(req *http.Request) (Session, error) {
	resp, err := a.client.send(req)
	if err != nil {
		return Session{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	var env tokenEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Session{}, TransportError{Kind: KindClientError, Message: "decode token response", Cause: err}
	}
	tok := env.unwrap()
	if tok.accessToken() == "" {
		return Session{}, nil
	}
	sess := Session{
		AccessToken:  tok.accessToken(),
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		User:         tok.User,
	}
	if tok.ExpiresIn > 0 {
		sess.ExpiresAt = a.client.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return sess, nil
}

// completeLogin persists the minted session and backfills the profile when
// the token response embedded none. Profile-fetch failures are logged and
// swallowed; the session stays usable without a cached profile.
func (a *AuthClient) completeLogin(ctx context.Context, sess Session, epoch uint64) (Session, error) {
	if err := a.client.commitSession(sess, epoch); err != nil {
		return Session{}, err
	}
	if sess.User == nil {
		profile, err := a.FetchCurrentUser(ctx)
		if err != nil {
			a.client.logger.Warn().Err(err).Msg("fetch current user after login")
		} else {
			sess.User = &profile
		}
	}
	return sess, nil
}

// asInvalidCredentials reclassifies token-endpoint rejections: a 400 or 401
// there means the submitted credentials were bad, not that a session expired.
func asInvalidCredentials(err error) error {
	var apiErr APIError
	if errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized) {
		apiErr.Kind = KindInvalidCredentials
		return apiErr
	}
	return err
}

func decodeProfileEnvelope(r io.Reader) (UserProfile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return UserProfile{}, TransportError{Kind: KindClientError, Message: "read profile response", Cause: err}
	}
	var wrapper struct {
		Data *UserProfile `json:"data"`
		User *UserProfile `json:"user"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil {
		if wrapper.Data != nil && wrapper.Data.looksLikeUser() {
			return *wrapper.Data, nil
		}
		if wrapper.User != nil && wrapper.User.looksLikeUser() {
			return *wrapper.User, nil
		}
	}
	var profile UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return UserProfile{}, TransportError{Kind: KindClientError, Message: "decode profile response", Cause: err}
	}
	if !profile.looksLikeUser() {
		return UserProfile{}, TransportError{Kind: KindClientError, Message: "profile response carried no user"}
	}
	return profile, nil
}
