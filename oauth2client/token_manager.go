package oauth2client

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Logger is an interface for optional logging in TokenManager.
// Implementations can log token refresh events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenManager manages the client-credentials access token with automatic
// refresh. It caches one token at a time and is safe for concurrent access.
//
// The accounts service receives the application identity as an
// "Authorization: Basic base64(id:secret)" header and a
// "grant_type=client_credentials" form body on every fetch.
type TokenManager struct {
	config       *clientcredentials.Config
	token        *oauth2.Token
	mu           sync.RWMutex
	ctx          context.Context // fallback context for GetToken
	httpClient   *http.Client    // session used for token requests, optional
	expiryLeeway time.Duration
	logger       Logger // optional logger
}

// Option is a functional option for configuring TokenManager.
type Option func(*TokenManager)

// WithLogger sets a custom logger for token refresh events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(tm *TokenManager) {
		tm.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
// This is a convenience option that sets the logger to log.Default().
func WithLoggingEnabled() Option {
	return func(tm *TokenManager) {
		tm.logger = log.Default()
	}
}

// WithExpiryLeeway refreshes the token the given duration before its actual
// expiry. The default is zero: the cached token is reused until the moment
// the server-reported lifetime has fully elapsed.
func WithExpiryLeeway(leeway time.Duration) Option {
	return func(tm *TokenManager) {
		tm.expiryLeeway = leeway
	}
}

// WithHTTPClient routes token requests through the given client, typically
// the pooled session built by the httpclient package, so fetches share its
// retry policy and connection pool.
func WithHTTPClient(client *http.Client) Option {
	return func(tm *TokenManager) {
		tm.httpClient = client
	}
}

// NewTokenManager creates a token manager for the client-credentials grant.
//
// Parameters:
//   - ctx: Context for token requests (used as fallback by GetToken)
//   - tokenURL: OAuth2 token endpoint (e.g., "https://accounts.spotify.com/api/token")
//   - clientID: application client identifier
//   - clientSecret: application client secret
//   - opts: optional configuration (WithLogger, WithHTTPClient, WithExpiryLeeway)
//
// The grant takes no scopes; access rights follow from the application
// identity alone.
func NewTokenManager(ctx context.Context, tokenURL, clientID, clientSecret string, opts ...Option) *TokenManager {
	// Keep token requests independent from caller cancellations while preserving values.
	if ctx == nil {
		ctx = context.Background()
	} else {
		ctx = context.WithoutCancel(ctx)
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		// Pin Basic auth so credentials never travel in the form body.
		AuthStyle: oauth2.AuthStyleInHeader,
	}

	tm := &TokenManager{
		config: config,
		ctx:    ctx,
	}

	for _, opt := range opts {
		opt(tm)
	}

	return tm
}

// GetTokenWithContext returns a valid access token, fetching or refreshing
// if necessary. The expiry check happens synchronously before returning, so
// a returned token is never already expired.
//
// The method respects the provided context's cancellation and deadline and
// uses double-checked locking to minimize lock contention. A failed fetch
// leaves any previously cached token untouched; the next access retries.
func (tm *TokenManager) GetTokenWithContext(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Fast path: check if we have a valid token without write lock
	tm.mu.RLock()
	if tm.tokenValid() {
		token := tm.token.AccessToken
		tm.mu.RUnlock()
		return token, nil
	}
	tm.mu.RUnlock()

	// Token is invalid or missing, fetch a new one
	tm.mu.Lock()
	defer tm.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine might have refreshed)
	if tm.tokenValid() {
		return tm.token.AccessToken, nil
	}

	if tm.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, tm.httpClient)
	}

	token, err := tm.config.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("oauth2: failed to fetch token: %w", err)
	}

	tm.token = token

	if tm.logger != nil {
		tm.logger.Printf("oauth2: obtained new access token (expires: %s)", token.Expiry.Format(time.RFC3339))
	}

	return token.AccessToken, nil
}

// GetToken returns a valid access token, fetching or refreshing if
// necessary, using the constructor context. Prefer GetTokenWithContext when
// the caller has a context with a deadline.
func (tm *TokenManager) GetToken() (string, error) {
	return tm.GetTokenWithContext(tm.ctx)
}

// tokenValid reports whether the cached token can still be handed out.
// With zero leeway the cutoff is exactly the server-reported expiry.
func (tm *TokenManager) tokenValid() bool {
	if tm.token == nil || tm.token.AccessToken == "" {
		return false
	}
	if tm.token.Expiry.IsZero() {
		return true
	}
	return time.Until(tm.token.Expiry) > tm.expiryLeeway
}
