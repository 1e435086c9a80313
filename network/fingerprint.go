package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

// ChromeTransport is a RoundTripper whose TLS handshakes mimic Chrome 120.
//
// Sites behind anti-bot proxies reject the stock Go ClientHello. HTTP/2 is
// tried first; when the h2 exchange fails the request is replayed over
// HTTP/1.1 with only http/1.1 advertised. Plain http urls use a regular transport.
type ChromeTransport struct {
	h2    *http2.Transport
	h1    *http.Transport
	plain *http.Transport
}

// NewChromeTransport returns a ready ChromeTransport.
func NewChromeTransport() *ChromeTransport {
	return &ChromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChrome(ctx, network, addr, nil)
			},
		},
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChrome(ctx, network, addr, []string{"http/1.1"})
			},
			IdleConnTimeout:       30 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
		plain: newTransport(),
	}
}

func (t *ChromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.plain.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	retry, rerr := rewind(req)
	if rerr != nil {
		return nil, err
	}

	return t.h1.RoundTrip(retry)
}

// rewind returns a copy of req whose body can be sent again.
func rewind(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, nil
	}

	if req.GetBody == nil {
		return nil, fmt.Errorf("request body of %s can not be replayed", req.URL)
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}

	retry.Body = body
	return retry, nil
}

// dialChrome opens a TLS connection with the Chrome 120 fingerprint.
// nextProtos overrides the ALPN list of the fingerprint when set.
func dialChrome(ctx context.Context, network, addr string, nextProtos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: nextProtos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}

	return tlsConn, nil
}
