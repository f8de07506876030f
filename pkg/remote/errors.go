package remote

import "errors"

var (
	// ErrNotFound is returned when the sibling service answers 404.
	ErrNotFound = errors.New("remote: resource not found")

	// ErrUnexpectedStatus is returned for any other non-2xx answer.
	ErrUnexpectedStatus = errors.New("remote: unexpected status")

	// ErrUnavailable is returned without a network call while the circuit
	// breaker is open.
	ErrUnavailable = errors.New("remote: service unavailable")

	// ErrDecode is returned when the response body is not the expected JSON.
	ErrDecode = errors.New("remote: failed to decode response")

	// ErrBaseURLRequired is returned by New when no base URL is given.
	ErrBaseURLRequired = errors.New("remote: base url is required")
)
