package resp

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// ErrProtocol indicates a malformed reply that could not be decoded.
var ErrProtocol = errors.New("protocol error")

// ServerError is an application-level error reply from the server
// ("-ERR unknown command", "-WRONGTYPE ...").
//
// A ServerError is never retriable: the server processed the command and
// rejected it, so resending would reproduce the same outcome.
type ServerError struct {
	// Message is the error text after the '-' prefix.
	Message string
}

// Error returns the server-reported message.
func (e *ServerError) Error() string {
	return e.Message
}

// IsServerError returns true if err is (or wraps) a server error reply.
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

// IsRetriable classifies an error as transient.
//
// Transient errors are network-class failures where resending the command
// over a fresh connection can succeed: dial failures, resets, broken
// pipes, timeouts, and truncated reads. Server error replies, protocol
// violations and local validation errors are not transient.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}

	var se *ServerError
	if errors.As(err, &se) {
		return false
	}
	if errors.Is(err, ErrProtocol) {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}
