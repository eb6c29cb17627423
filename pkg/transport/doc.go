// Package transport establishes the byte-stream transports the connection
// layer runs over.
//
// The Dialer interface is the narrow contract consumed by pkg/connection:
// given an address, produce a connected net.Conn. NetDialer is the default
// implementation, dialing TCP with an optional TLS upgrade. Substitute a
// custom Dialer to reach servers over unix sockets, proxies, or in-memory
// pipes in tests.
package transport
