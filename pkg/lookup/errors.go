package lookup

import (
	"errors"
	"fmt"
)

// ErrRetryExhausted wraps the final failure once the retry budget is spent.
var ErrRetryExhausted = errors.New("retry budget exhausted")

// ErrorKind classifies provider fetch failures.
type ErrorKind string

const (
	// KindInvalidQuery: the provider rejected the query (HTTP 400). Not
	// retryable.
	KindInvalidQuery ErrorKind = "invalid_query"

	// KindTimeout: the attempt(s) timed out.
	KindTimeout ErrorKind = "timeout"

	// KindTransport: network failure or provider 5xx.
	KindTransport ErrorKind = "api_error"

	// KindMalformed: the provider answered 2xx with an undecodable body.
	// Not retryable; surfaced as a server error.
	KindMalformed ErrorKind = "malformed"
)

// FetchError is a failed provider lookup.
type FetchError struct {
	Kind     ErrorKind
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lookup %s after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("lookup %s after %d attempt(s)", e.Kind, e.Attempts)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// statusError records a non-2xx provider status for retry classification
// and the exhaustion report.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider status %d", e.status)
}
