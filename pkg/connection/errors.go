package connection

import (
	"errors"
)

// Connection errors.
var (
	// ErrClosed indicates the connection was manually closed by the
	// caller; automatic recovery is suppressed in this state.
	ErrClosed = errors.New("connection closed")

	// ErrNotConnected indicates no transport is currently established.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected indicates Connect was called on a live
	// connection.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrDBIndexRequired indicates database selection was requested
	// without a usable index. Raised locally, before any server contact.
	ErrDBIndexRequired = errors.New("database index required")
)

// AuthError indicates the server rejected the configured credentials.
// Authentication failures are fatal: they abort the connect attempt and
// are never retried.
type AuthError struct {
	// Err is the server-reported cause.
	Err error
}

// Error returns the failure description.
func (e *AuthError) Error() string {
	return "authentication failed: " + e.Err.Error()
}

// Unwrap returns the server-reported cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError returns true if err is (or wraps) an authentication failure.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
