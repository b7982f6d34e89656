// Package netutil classifies transport errors for retry decisions.
package netutil

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strings"
	"syscall"
)

// ShouldRetry reports whether a transport-level error is worth retrying.
// Context cancellation and TLS handshake failures are terminal; timeouts,
// refused connections and DNS hiccups are transient.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout || dnsErr.IsNotFound
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	msg := err.Error()
	for _, marker := range []string{"connection reset", "broken pipe", "unexpected EOF", "EOF"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
