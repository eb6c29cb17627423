package transport

import (
	"crypto/tls"
	"crypto/x509"
)

// TLSOptions holds configuration for client TLS connections.
type TLSOptions struct {
	// ServerName is the expected server name for certificate verification.
	ServerName string

	// RootCAs is the pool of trusted CA certificates.
	// Nil means the host's root CA set.
	RootCAs *x509.CertPool

	// Certificates are optional client certificates for mutual TLS.
	Certificates []tls.Certificate

	// InsecureSkipVerify disables certificate verification.
	// Only for testing - never use in production!
	InsecureSkipVerify bool
}

// NewClientTLSConfig creates a TLS configuration for connecting to a
// key-value server.
func NewClientTLSConfig(opts TLSOptions) *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,

		ServerName:         opts.ServerName,
		RootCAs:            opts.RootCAs,
		Certificates:       opts.Certificates,
		InsecureSkipVerify: opts.InsecureSkipVerify,
	}
}
