// Package network provides the tuned HTTP clients used for upstream page fetches.
package network

import (
	"net/http"
	"time"
)

// Client is the HTTP client shared by every stateless fetch that needs no special transport.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

// NewClient returns a client bounded by timeout.
// With fingerprint set, TLS handshakes present a Chrome ClientHello.
func NewClient(timeout time.Duration, fingerprint bool) *http.Client {
	var transport http.RoundTripper = newTransport()
	if fingerprint {
		transport = NewChromeTransport()
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// newTransport initializes a tuned http.Transport with optimized pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 30 * time.Second
	return t
}
