// Package network provides the HTTP client used to talk to resolver endpoints and configuration sources.
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/playback"
)

// maxBodySize caps resolver responses; a resolver answer is a small JSON document.
const maxBodySize = 8 << 20

// Fetcher fetches a URL as text. Per-call headers override client defaults.
// A zero timeout means the client default.
type Fetcher interface {
	FetchText(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (string, error)
}

// Options configure a Client.
type Options struct {
	// Timeout is the default per-request timeout.
	Timeout time.Duration
	// UserAgent is sent unless a caller overrides it.
	UserAgent string
	// TLSFingerprint routes https requests through a Chrome ClientHello.
	TLSFingerprint bool
}

// Client is a Fetcher backed by net/http with a transport tuned for many concurrent resolver calls.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

// New creates a client. Zero options fall back to a 15s timeout and the desktop user agent.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = constant.UserAgent
	}

	var transport http.RoundTripper = newTransport()
	if opts.TLSFingerprint {
		transport = newFingerprintTransport(opts.Timeout)
	}

	return &Client{
		http:      &http.Client{Transport: transport},
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
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

// FetchText performs a GET and returns the body. Transport failures and non-2xx statuses
// are reported as playback.ErrNetwork; cancelling ctx aborts the request in flight.
func (c *Client) FetchText(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", playback.ErrInvalidURL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", playback.NetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", playback.NetworkError(fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", playback.NetworkError(fmt.Errorf("read body: %w", err))
	}

	return string(body), nil
}
