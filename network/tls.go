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

// fingerprintTransport sends https requests with a Chrome 120 ClientHello. Some resolver
// endpoints sit behind anti-bot fronts that reject the stock Go TLS fingerprint.
//
// HTTP/2 is tried first; when the handshake or the h2 exchange fails the request is
// replayed over an HTTP/1.1-only connection.
type fingerprintTransport struct {
	plain *http.Transport
	h2    *http2.Transport
	h1    *http.Transport
}

func newFingerprintTransport(timeout time.Duration) *fingerprintTransport {
	dialer := &net.Dialer{Timeout: timeout}

	return &fingerprintTransport{
		plain: newTransport(),
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialFingerprint(ctx, dialer, network, addr, nil)
			},
		},
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialFingerprint(ctx, dialer, network, addr, []string{"http/1.1"})
			},
		},
	}
}

func (t *fingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.plain.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	if req.Context().Err() != nil || (req.Body != nil && req.GetBody == nil) {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		if retry.Body, err = req.GetBody(); err != nil {
			return nil, err
		}
	}

	return t.h1.RoundTrip(retry)
}

// dialFingerprint opens a TLS connection mimicking Chrome 120. A nil protos keeps Chrome's
// own ALPN list (h2 and http/1.1).
func dialFingerprint(ctx context.Context, dialer *net.Dialer, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
