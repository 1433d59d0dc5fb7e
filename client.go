package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/paylith/paylith-go/headers"
	"github.com/paylith/paylith-go/routes"
)

const defaultBaseURL = "https://api.paylith.io"
const defaultUserAgent = "paylith-sdk/" + Version

// defaultRequestTimeout bounds every outbound request; a request that
// outlives it is treated as having received no response.
const defaultRequestTimeout = 10 * time.Second

// baseURLEnv overrides the backend base URL when Config.BaseURL is empty.
const baseURLEnv = "PAYLITH_BASE_URL"

// Config wires persistence, transport, and policy for the API client.
type Config struct {
	// BaseURL is the backend origin. Falls back to PAYLITH_BASE_URL, then
	// the production default.
	BaseURL string
	// HTTPClient overrides the transport. The default applies the
	// 10-second request timeout.
	HTTPClient *http.Client
	// Store owns credential persistence. Defaults to an in-memory store.
	Store TokenStore
	// Logger receives request logs and the swallowed best-effort failures.
	Logger *zerolog.Logger
	// UserAgent overrides the default SDK identifier.
	UserAgent string
	// ClientID and ClientSecret form the Basic client-authentication
	// identity sent to the token endpoint. Defaults apply when empty.
	ClientID     string
	ClientSecret string
	// RedirectOnUnauthorized controls whether a 401 on an authenticated
	// call invokes OnUnauthorized after local credentials are cleared.
	// The clearing itself is unconditional.
	RedirectOnUnauthorized bool
	// OnUnauthorized is the forced-navigation hook for the routing layer.
	OnUnauthorized func()
	// Timeout overrides the default request timeout when HTTPClient is nil.
	Timeout time.Duration
	// Now injects a clock for tests. Defaults to time.Now.
	Now func() time.Time
}

// Client owns the request pipeline and the in-memory session projection.
type Client struct {
	baseURL                string
	httpClient             *http.Client
	store                  TokenStore
	logger                 zerolog.Logger
	userAgent              string
	clientID               string
	clientSecret           string
	redirectOnUnauthorized bool
	onUnauthorized         func()
	now                    func() time.Time

	// mu guards the cached session and its epoch. The epoch advances on
	// every clear so a completed logout is never resurrected by a
	// straggling login or refresh commit.
	mu      sync.Mutex
	session Session
	epoch   uint64

	// Grouped service clients.
	Auth *AuthClient
	IAM  *IAMClient
}

// NewClient validates the configuration, rehydrates any persisted session,
// and returns a ready-to-use Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv(baseURLEnv)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryTokenStore()
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	clientSecret := cfg.ClientSecret
	if clientSecret == "" {
		clientSecret = DefaultClientSecret
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	client := &Client{
		baseURL:                normalized,
		httpClient:             httpClient,
		store:                  store,
		logger:                 logger,
		userAgent:              ua,
		clientID:               clientID,
		clientSecret:           clientSecret,
		redirectOnUnauthorized: cfg.RedirectOnUnauthorized,
		onUnauthorized:         cfg.OnUnauthorized,
		now:                    now,
	}
	sess, err := store.Get()
	if err != nil {
		client.logger.Warn().Err(err).Msg("rehydrate session")
	} else {
		client.session = sess
	}
	client.Auth = &AuthClient{client: client}
	client.IAM = &IAMClient{client: client}
	return client, nil
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ConfigError{Reason: "base URL required"}
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", ConfigError{Reason: "invalid base URL: " + err.Error()}
	}
	if u.Scheme == "" {
		return "", ConfigError{Reason: "base URL missing scheme (http/https)"}
	}
	if u.Host == "" {
		return "", ConfigError{Reason: "base URL missing host"}
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

// Session returns the cached in-memory session projection. Guard decisions
// are evaluated synchronously against this value; no network I/O happens.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) sessionEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// snapshot returns the cached session together with the epoch it was read
// at, so a later commit can detect an intervening logout.
func (c *Client) snapshot() (Session, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, c.epoch
}

// commitSession installs a session minted by a login or refresh that started
// at the given epoch. Returns ErrSessionCleared when a logout completed in
// the meantime: the stale write must become a no-op.
func (c *Client) commitSession(sess Session, epoch uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return ErrSessionCleared
	}
	c.session = sess
	return c.store.Put(sess)
}

// clearSession wipes the cache and the store and advances the epoch so any
// in-flight commit fails. Store failures are logged; local teardown must be
// side-effect-complete even offline.
func (c *Client) clearSession() {
	c.mu.Lock()
	c.epoch++
	c.session = Session{}
	err := c.store.Clear()
	c.mu.Unlock()
	if err != nil {
		c.logger.Warn().Err(err).Msg("clear token store")
	}
}

func isPublicPath(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == routes.PublicSegment {
			return true
		}
	}
	return false
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, TransportError{Kind: KindClientError, Message: "encode request body", Cause: err}
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return nil, TransportError{Kind: KindClientError, Message: "build request", Cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newFormRequest(ctx context.Context, path string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, TransportError{Kind: KindClientError, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// prepare runs the request stage of the pipeline. It reports whether a
// bearer credential was attached, which decides 401 handling later.
func (c *Client) prepare(req *http.Request) bool {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get(headers.RequestID) == "" {
		req.Header.Set(headers.RequestID, uuid.NewString())
	}
	injectTraceparent(req.Context(), req)

	bypass := req.Header.Get(headers.FirstAdminRegistration) != ""
	if bypass {
		// The marker is client-internal and must never reach the wire.
		req.Header.Del(headers.FirstAdminRegistration)
	}
	switch {
	case bypass:
	case isPublicPath(req.URL.Path):
	case req.Header.Get("Authorization") != "":
		// Caller-supplied client authentication stays untouched.
	default:
		if tok := c.Session().AccessToken; tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
			return true
		}
	}
	return false
}

// send runs the full pipeline: credential attachment, transmission, and
// failure classification. A 401 on an authenticated call clears local
// credentials before the error reaches the caller.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	attached := c.prepare(req)
	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("http request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, TransportError{Kind: KindNetworkUnavailable, Message: "no response from server", Cause: err}
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		apiErr := decodeAPIError(resp)
		if resp.StatusCode == http.StatusUnauthorized && attached {
			c.clearSession()
			if c.redirectOnUnauthorized && c.onUnauthorized != nil {
				c.onUnauthorized()
			}
		}
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
