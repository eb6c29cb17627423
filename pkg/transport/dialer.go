package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// DefaultConnectTimeout applies when the dial context has no deadline.
const DefaultConnectTimeout = 10 * time.Second

// Dialer produces a connected byte-stream transport to a server address.
type Dialer interface {
	// Dial connects to address ("host:port"). The returned net.Conn is
	// ready for protocol traffic; dial failures are returned as-is.
	Dial(ctx context.Context, address string) (net.Conn, error)
}

// NetDialer is the default Dialer: TCP, optionally upgraded to TLS.
type NetDialer struct {
	// TLSConfig enables a TLS upgrade after the TCP dial when non-nil.
	TLSConfig *tls.Config

	// Timeout bounds the dial plus handshake when the context carries no
	// deadline (default: DefaultConnectTimeout).
	Timeout time.Duration

	// KeepAlive is the TCP keep-alive period (default: OS setting).
	KeepAlive time.Duration
}

// Dial connects to address, performing the TLS handshake if configured.
func (d *NetDialer) Dial(ctx context.Context, address string) (net.Conn, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		timeout := d.Timeout
		if timeout == 0 {
			timeout = DefaultConnectTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dialer := &net.Dialer{KeepAlive: d.KeepAlive}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	if d.TLSConfig == nil {
		return conn, nil
	}

	tlsConn := tls.Client(conn, d.TLSConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("TLS handshake failed: %w", err)
	}
	return tlsConn, nil
}

// Compile-time interface satisfaction check.
var _ Dialer = (*NetDialer)(nil)
