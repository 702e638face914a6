package maib

import "fmt"

// ValidationError reports a request parameter that failed the field contract
// before any network I/O happened.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %q parameter: %s", e.Field, e.Reason)
}

// TransportError wraps a network-level failure. The remote side may or may
// not have applied the operation; callers must treat it as a failed attempt.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("maib: request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a structured error reported by the processor.
type APIError struct {
	Endpoint string
	Code     string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("maib: %s returned error: %s (%s)", e.Endpoint, e.Message, e.Code)
}

// InvalidResponseError marks a response that carries neither a usable result
// nor a structured error.
type InvalidResponseError struct {
	Endpoint string
	Reason   string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("maib: invalid response from %s: %s", e.Endpoint, e.Reason)
}
