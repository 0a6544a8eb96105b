// Package spotify authenticates an application against the Spotify Web API
// using the OAuth2 client-credentials grant.
//
// A Client resolves its credentials at construction, either from explicit
// arguments or from the environment-backed configuration, and then exposes
// three accessors: Session (the pooled, retrying HTTP session), Token (the
// cached access token, transparently refreshed on expiry), and
// Authenticated (a client that injects the bearer token into API calls).
//
// # Quick Start
//
//	client, err := spotify.New("", "") // credentials from SPOTBIT_CLIENT_ID / SPOTBIT_CLIENT_SECRET
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := client.Token(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Authenticated().Get("https://api.spotify.com/v1/search?q=...&type=track")
//
// # Errors
//
// Construction problems the caller can fix (a missing credential) are
// reported as *ClientError. Operational failures during token acquisition
// (endpoint unreachable, retries exhausted, non-success response) are
// reported as *Error wrapping the underlying cause. Nothing is swallowed or
// logged internally; supply WithLogger to observe refresh events.
package spotify
