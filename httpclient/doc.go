// Package httpclient builds the HTTP session used for token requests and
// subsequent API calls.
//
// It provides a fluent Builder that creates an http.Client backed by a
// pooled transport with retry-on-transient-failure semantics: up to five
// retries with exponential backoff from 100ms, applied only to request
// timeout and gateway-style 5xx statuses. Optional bearer authentication
// injects access tokens from an oauth2client.TokenManager, and TLS (custom
// CA, mTLS, insecure for tests) can be configured the same way as timeouts,
// redirects, and pool sizing.
//
// # Features
//
//   - Transport-level retries, so the token fetch itself is covered
//   - Connection pool sized to 5x the available CPUs by default
//   - TLS 1.2+ by default, with custom CA/mTLS and optional InsecureSkipVerify
//   - Reusable BearerTransport for manual composition
//
// # Quick Start
//
//	session, err := httpclient.NewBuilder().
//	    WithTimeout(60 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := session.Get("https://api.spotify.com/v1/search?q=...")
//
// # Manual Transport Wrapping
//
//	transport := httpclient.NewBearerTransport(tm, nil)
//	client := &http.Client{Transport: transport}
//
// All components are safe for concurrent use if the provided TokenManager is.
package httpclient
