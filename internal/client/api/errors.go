package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers transport-level failures: the backend could not
	// be reached or did not answer in time.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized is returned for 401/403 responses on protected calls,
	// typically a stale or revoked token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoToken is returned by Login when the backend reports success but
	// the response carries no usable token.
	ErrNoToken = errors.New("no token returned by server")
)

// Error is a backend-reported failure (non-2xx with a response body). Detail
// carries the human-readable message extracted from the body, when present.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (status %d)", e.Status)
}

// DetailOf extracts the backend detail message from err, or "" when err does
// not carry one. Callers use it to decide between showing the backend's own
// text and a generic fallback.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}
