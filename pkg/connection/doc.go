// Package connection manages a single logical connection to a
// RESP-speaking key-value server.
//
// This package handles:
//   - Connection lifecycle: dial, optional TLS, AUTH, SELECT
//   - The FIFO pending-command queue and its single-flight dispatcher
//   - Transparent recovery from transient network failures
//   - The periodic health-check loop
//
// # Command serialization
//
// Any number of goroutines may submit commands; submission is non-blocking
// and returns a Result immediately. Execution against the transport is
// strictly serialized: one round trip at a time, in submission order, and
// results settle in that same order.
//
// # Failure recovery
//
// A round trip that fails with a transient network error triggers a
// bounded recovery loop: close the transport, wait the backoff delay for
// the attempt index, re-establish the connection, resend the same command.
// Exhausting the retry budget rejects the command with the first observed
// error. Server error replies and authentication failures never retry.
//
// # Manual closure
//
// Close puts the connection into the manually-closed state, which
// suppresses all automatic recovery and stops the health-check loop. A
// later Connect revives the same Conn.
package connection
