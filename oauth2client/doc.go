// Package oauth2client provides the client-credentials token manager used to
// authenticate against the accounts service.
//
// It caches the bearer token, refreshes it when the server-reported lifetime
// has elapsed, and can log refresh events via an optional Logger interface.
// Token fetches honor contexts for cancellation and are thread-safe.
//
// # Features
//
//   - Client-credentials flow with automatic caching and refresh on expiry
//   - Basic authorization header (base64 of "id:secret"), never in the body
//   - Context-aware token fetching with cancellation and deadline support
//   - Optional early refresh window (WithExpiryLeeway)
//   - Token requests routed through a shared session (WithHTTPClient)
//   - Optional logging (WithLogger, WithLoggingEnabled)
//
// # Quick Start
//
//	tm := oauth2client.NewTokenManager(
//	    ctx,
//	    "https://accounts.spotify.com/api/token",
//	    "client-id",
//	    "client-secret",
//	    oauth2client.WithLoggingEnabled(),
//	)
//
//	token, err := tm.GetTokenWithContext(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Notes
//
//   - GetTokenWithContext is preferred; GetToken falls back to the
//     constructor context.
//   - TokenManager is safe for concurrent use and uses double-checked locking,
//     so one expiry triggers at most one fetch.
//   - A failed fetch leaves the cached token untouched; the next access retries.
package oauth2client
