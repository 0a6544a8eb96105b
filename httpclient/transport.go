package httpclient

import (
	"fmt"
	"net/http"

	"github.com/syahrulhamdani/spotbit/oauth2client"
)

// BearerTransport is an http.RoundTripper that adds the current access
// token to outgoing requests.
//
// It wraps an existing transport (typically the session's retrying
// transport) and injects the Authorization header before each request,
// refreshing the token through the TokenManager when it has expired.
type BearerTransport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// TokenManager provides access tokens.
	TokenManager *oauth2client.TokenManager
}

// RoundTrip implements http.RoundTripper. It obtains a currently-valid
// access token, sets "Authorization: Bearer <token>" on a clone of the
// request, and delegates to the base transport. The token fetch respects
// the request context's cancellation and deadline.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.TokenManager == nil {
		return nil, fmt.Errorf("httpclient: TokenManager is nil")
	}

	token, err := t.TokenManager.GetTokenWithContext(req.Context())
	if err != nil {
		return nil, fmt.Errorf("httpclient: failed to get token: %w", err)
	}

	// Clone so retries and the caller never observe the injected header.
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+token)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(reqClone)
}

// NewBearerTransport creates a BearerTransport with the given token manager.
// The base transport defaults to http.DefaultTransport if not specified.
func NewBearerTransport(tm *oauth2client.TokenManager, base http.RoundTripper) *BearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &BearerTransport{
		Base:         base,
		TokenManager: tm,
	}
}
