// Package testutil provides shared test helpers: an in-memory mock of the
// accounts service token endpoint with request recording, IPv4-only
// httptest servers, and self-signed certificate writers for TLS tests.
package testutil
