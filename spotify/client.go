package spotify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/syahrulhamdani/spotbit/config"
	"github.com/syahrulhamdani/spotbit/httpclient"
	"github.com/syahrulhamdani/spotbit/oauth2client"
)

// Client authenticates one application against the Spotify accounts service
// using the client-credentials grant.
//
// Credentials are resolved once at construction and are immutable
// afterwards. The HTTP session and the token manager are created lazily, at
// most once per Client, and shared by every accessor. A Client is safe for
// concurrent use.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string

	cfg           *config.Config
	baseTransport http.RoundTripper
	expiryLeeway  time.Duration
	logger        oauth2client.Logger

	mu      sync.Mutex
	session *http.Client
	authed  *http.Client
	tokens  *oauth2client.TokenManager
}

// Option is a functional option for configuring Client.
type Option func(*Client)

// WithConfig injects the resolved configuration used as fallback for
// credentials and the token URL. By default New loads it from the
// environment.
func WithConfig(cfg *config.Config) Option {
	return func(c *Client) {
		c.cfg = cfg
	}
}

// WithTokenURL overrides the token endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(c *Client) {
		c.tokenURL = tokenURL
	}
}

// WithBaseTransport places a custom transport under the session's retry
// layer. Intended for tests and custom middleware.
func WithBaseTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.baseTransport = transport
	}
}

// WithExpiryLeeway refreshes the access token the given duration before its
// reported expiry instead of exactly at it.
func WithExpiryLeeway(leeway time.Duration) Option {
	return func(c *Client) {
		c.expiryLeeway = leeway
	}
}

// WithLogger enables logging of token refresh and retry events.
// Nothing is logged if unset.
func WithLogger(logger oauth2client.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the given application credentials.
//
// Either credential may be empty, in which case the value from the injected
// or environment-loaded configuration is used. If a credential is missing
// from both sources, New returns a *ClientError immediately; no network
// activity happens during construction.
func New(clientID, clientSecret string, opts ...Option) (*Client, error) {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.clientID == "" || c.clientSecret == "" || c.tokenURL == "" {
		cfg := c.cfg
		if cfg == nil {
			cfg = config.Load()
		}

		if c.clientID == "" {
			c.clientID = cfg.ClientID
		}
		if c.clientSecret == "" {
			c.clientSecret = cfg.ClientSecret
		}
		if c.tokenURL == "" {
			c.tokenURL = cfg.TokenURL
		}
	}
	if c.tokenURL == "" {
		c.tokenURL = config.DefaultTokenURL
	}

	if c.clientID == "" {
		return nil, &ClientError{Field: "client ID"}
	}
	if c.clientSecret == "" {
		return nil, &ClientError{Field: "client secret"}
	}

	return c, nil
}

// Session returns the HTTP session used for token requests and API calls.
//
// The session is created on first use with connection pooling and the
// transient-failure retry policy, then reused: every call returns the
// identical handle. It is never explicitly closed.
func (c *Client) Session() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionLocked()
}

// Token returns a currently-valid access token, authenticating against the
// accounts service when no token is cached or the cached one has expired.
//
// The expiry check happens synchronously before returning. Exactly one
// token request is performed when a refresh is needed, and none otherwise.
// Failures are reported as *Error; cached state is left untouched so the
// next access retries.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	tokens := c.tokenManagerLocked()
	c.mu.Unlock()

	token, err := tokens.GetTokenWithContext(ctx)
	if err != nil {
		return "", &Error{Op: "acquire token", Err: err}
	}

	return token, nil
}

// Authenticated returns an HTTP client for API calls that injects
// "Authorization: Bearer <token>" into every request, refreshing the token
// through the shared token manager as needed. It shares the session's
// transport and is cached like the session.
func (c *Client) Authenticated() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.authed != nil {
		return c.authed
	}

	session := c.sessionLocked()
	c.authed = &http.Client{
		Transport: httpclient.NewBearerTransport(c.tokenManagerLocked(), session.Transport),
		Timeout:   session.Timeout,
	}

	return c.authed
}

// sessionLocked builds the session on first use. Callers must hold c.mu.
func (c *Client) sessionLocked() *http.Client {
	if c.session != nil {
		return c.session
	}

	builder := httpclient.NewBuilder()
	if c.baseTransport != nil {
		builder = builder.WithBaseTransport(c.baseTransport)
	}
	if c.logger != nil {
		builder = builder.WithLogger(c.logger)
	}

	session, err := builder.Build()
	if err != nil {
		// Build fails only on TLS misconfiguration, which the client never sets.
		session = &http.Client{}
	}
	c.session = session

	return c.session
}

// tokenManagerLocked builds the token manager on first use, bound to the
// session so token requests share its pool and retry policy. Callers must
// hold c.mu.
func (c *Client) tokenManagerLocked() *oauth2client.TokenManager {
	if c.tokens != nil {
		return c.tokens
	}

	opts := []oauth2client.Option{
		oauth2client.WithHTTPClient(c.sessionLocked()),
	}
	if c.expiryLeeway > 0 {
		opts = append(opts, oauth2client.WithExpiryLeeway(c.expiryLeeway))
	}
	if c.logger != nil {
		opts = append(opts, oauth2client.WithLogger(c.logger))
	}

	c.tokens = oauth2client.NewTokenManager(context.Background(), c.tokenURL, c.clientID, c.clientSecret, opts...)

	return c.tokens
}
