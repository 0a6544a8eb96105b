package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/syahrulhamdani/spotbit/oauth2client"
)

const (
	defaultRetryMax     = 5
	defaultRetryWaitMin = 100 * time.Millisecond
	defaultRetryWaitMax = 10 * time.Second
	defaultTimeout      = 30 * time.Second

	// Pool connections per available CPU, matching the token endpoint's
	// recommended session sizing.
	poolSizePerCPU = 5
)

// DefaultRetryStatuses are the transient statuses retried by default:
// request timeout plus the 5xx statuses a gateway or overloaded upstream
// produces. Anything else fails immediately.
var DefaultRetryStatuses = []int{
	http.StatusRequestTimeout,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Builder provides a fluent interface for constructing the pooled, retrying
// HTTP session, with optional bearer authentication and TLS/mTLS support.
type Builder struct {
	// OAuth2 configuration
	tokenManager *oauth2client.TokenManager

	// Retry configuration
	retryMax      int
	retryWaitMin  time.Duration
	retryWaitMax  time.Duration
	retryStatuses []int

	// Connection pool sizing
	poolSize int

	// TLS configuration
	tlsEnabled    bool
	tlsCAFile     string
	tlsCertFile   string
	tlsKeyFile    string
	tlsSkipVerify bool

	// HTTP client configuration
	timeout         time.Duration
	baseTransport   http.RoundTripper
	followRedirects bool
	logger          oauth2client.Logger
}

// NewBuilder creates a session builder with the default retry policy
// (5 retries, exponential backoff from 100ms, transient statuses only) and
// a connection pool sized to 5x the available CPUs.
func NewBuilder() *Builder {
	return &Builder{
		retryMax:        defaultRetryMax,
		retryWaitMin:    defaultRetryWaitMin,
		retryWaitMax:    defaultRetryWaitMax,
		retryStatuses:   DefaultRetryStatuses,
		poolSize:        defaultPoolSize(),
		timeout:         defaultTimeout,
		followRedirects: true,
	}
}

// WithTokenManager sets the token manager for automatic bearer authentication.
func (b *Builder) WithTokenManager(tm *oauth2client.TokenManager) *Builder {
	b.tokenManager = tm
	return b
}

// WithOAuth2 enables bearer authentication by creating a new TokenManager
// for the client-credentials grant.
//
// Parameters:
//   - ctx: Context for token requests
//   - tokenURL: OAuth2 token endpoint (e.g., "https://accounts.spotify.com/api/token")
//   - clientID: application client identifier
//   - clientSecret: application client secret
func (b *Builder) WithOAuth2(ctx context.Context, tokenURL, clientID, clientSecret string) *Builder {
	b.tokenManager = oauth2client.NewTokenManager(ctx, tokenURL, clientID, clientSecret)
	return b
}

// WithRetryMax sets the maximum number of retries for transient failures.
func (b *Builder) WithRetryMax(max int) *Builder {
	b.retryMax = max
	return b
}

// WithRetryWait sets the minimum and maximum backoff between retries.
// The wait doubles from min on each attempt, capped at max.
func (b *Builder) WithRetryWait(min, max time.Duration) *Builder {
	b.retryWaitMin = min
	b.retryWaitMax = max
	return b
}

// WithRetryStatuses replaces the set of HTTP status codes that trigger a retry.
func (b *Builder) WithRetryStatuses(statuses ...int) *Builder {
	b.retryStatuses = statuses
	return b
}

// WithPoolSize overrides the connection pool size. Values below one fall
// back to the CPU-scaled default.
func (b *Builder) WithPoolSize(size int) *Builder {
	if size < 1 {
		size = defaultPoolSize()
	}
	b.poolSize = size
	return b
}

// WithLogger sets a logger for retry events. Nothing is logged if unset.
func (b *Builder) WithLogger(logger oauth2client.Logger) *Builder {
	b.logger = logger
	return b
}

// WithTLS enables TLS for the connection.
//
// Parameters:
//   - caFile: Path to CA certificate for server verification (optional, uses system roots if empty)
//   - certFile: Path to client certificate for mTLS (optional, must be paired with keyFile)
//   - keyFile: Path to client private key for mTLS (optional, must be paired with certFile)
func (b *Builder) WithTLS(caFile, certFile, keyFile string) *Builder {
	b.tlsEnabled = true
	b.tlsCAFile = caFile
	b.tlsCertFile = certFile
	b.tlsKeyFile = keyFile
	return b
}

// WithInsecureSkipVerify disables TLS certificate verification (NOT RECOMMENDED for production).
// This should only be used for testing or development purposes.
func (b *Builder) WithInsecureSkipVerify() *Builder {
	b.tlsSkipVerify = true
	return b
}

// WithTimeout sets the request timeout for the session.
// Default is 30 seconds if not specified.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithBaseTransport sets a custom base transport placed under the retry
// layer. This is useful for tests and custom middleware; it bypasses the
// built-in pool sizing.
func (b *Builder) WithBaseTransport(transport http.RoundTripper) *Builder {
	b.baseTransport = transport
	return b
}

// WithoutRedirects disables automatic redirect following.
// By default, the client follows up to 10 redirects.
func (b *Builder) WithoutRedirects() *Builder {
	b.followRedirects = false
	return b
}

// Build constructs the session with the configured options.
//
// The returned client retries transient failures at the transport level, so
// it can back every caller including the token fetch itself. It is created
// once per owner and never explicitly torn down; the pool is reused across
// requests.
//
// Returns:
//   - *http.Client: Configured HTTP session
//   - error: Error if configuration is invalid
func (b *Builder) Build() (*http.Client, error) {
	base := b.baseTransport
	if base == nil {
		pooled, err := b.buildPooledTransport()
		if err != nil {
			return nil, err
		}
		base = pooled
	}

	retrier := retryablehttp.NewClient()
	retrier.HTTPClient = &http.Client{Transport: base}
	retrier.RetryMax = b.retryMax
	retrier.RetryWaitMin = b.retryWaitMin
	retrier.RetryWaitMax = b.retryWaitMax
	retrier.CheckRetry = b.checkRetry
	// Silence retryablehttp's default stderr logger; errors propagate to
	// the caller instead.
	retrier.Logger = nil
	if b.logger != nil {
		retrier.Logger = b.logger
	}

	var transport http.RoundTripper = &retryablehttp.RoundTripper{Client: retrier}

	// Wrap with bearer authentication if a token manager is set
	if b.tokenManager != nil {
		transport = NewBearerTransport(b.tokenManager, transport)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   b.timeout,
	}

	// Configure redirect policy
	if !b.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}

// checkRetry implements the session retry policy: transient transport
// errors and the configured status codes are retried, everything else
// (including context cancellation) fails immediately.
func (b *Builder) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		// Let the library classify transport errors; it refuses to retry
		// permanent failures such as TLS verification errors.
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	for _, status := range b.retryStatuses {
		if resp.StatusCode == status {
			return true, nil
		}
	}

	return false, nil
}

// buildPooledTransport clones the default transport and applies pool sizing
// and TLS settings. A stubbed http.DefaultTransport (e.g. in tests) is used
// as-is.
func (b *Builder) buildPooledTransport() (http.RoundTripper, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport, nil
	}
	transport := base.Clone()

	transport.MaxIdleConns = b.poolSize
	transport.MaxIdleConnsPerHost = b.poolSize
	transport.MaxConnsPerHost = b.poolSize

	if b.tlsEnabled || b.tlsSkipVerify {
		tlsConfig, err := b.buildTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("httpclient: TLS config failed: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
	} else {
		// Secure TLS defaults even when TLS is not explicitly configured
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return transport, nil
}

// buildTLSConfig constructs the TLS configuration for the session.
func (b *Builder) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: b.tlsSkipVerify, // #nosec G402
	}

	// Load CA certificate for server verification
	if b.tlsCAFile != "" {
		caCert, err := os.ReadFile(b.tlsCAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}

		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = certPool
	}

	// Load client certificate for mTLS (if both cert and key are provided)
	if b.tlsCertFile != "" && b.tlsKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(b.tlsCertFile, b.tlsKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	} else if b.tlsCertFile != "" || b.tlsKeyFile != "" {
		return nil, errors.New("both TLS cert and key files must be provided for mTLS")
	}

	return tlsConfig, nil
}

// defaultPoolSize returns 5x the available CPUs, with a floor of one.
func defaultPoolSize() int {
	cpus := runtime.NumCPU()
	if cpus < 1 {
		cpus = 1
	}
	return cpus * poolSizePerCPU
}
