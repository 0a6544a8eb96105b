package spotify

import "fmt"

// ClientError reports a mistake the caller can fix: a credential that is
// neither passed explicitly nor available from configuration. It is
// returned by New before any network activity takes place.
type ClientError struct {
	// Field names the missing value, e.g. "client ID".
	Field string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("spotify: missing %s: pass it to New or set it in the environment", e.Field)
}

// Error reports an operational failure while acquiring a token from the
// accounts service: the endpoint was unreachable, kept failing after
// retries, or returned a non-success response.
//
// The underlying transport or HTTP error is available via Unwrap.
type Error struct {
	// Op describes the failed operation.
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("spotify: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
