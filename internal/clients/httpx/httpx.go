// Package httpx provides a small shared HTTP client wrapper with sane
// transport defaults and a bounded retry helper for upstream calls.
package httpx

import (
	"context"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/yangbongclub/marketdesk/internal/models"
)

// BrowserUserAgent is sent to upstreams that reject non-browser clients
// (Naver and Yahoo both do).
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client is a small wrapper around http.Client with sane defaults.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string
}

// New creates a client with a tuned transport and a hard request timeout.
// Timeouts stay in single digits: one slow upstream must not stall a request.
func New(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout, Transport: transport},
		UserAgent: "marketdesk/1.0",
	}
}

// Do executes the request, applying the default user agent and headers.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.HTTP.Do(req)
}

// MaxAttempts bounds in-adapter retries for transient failures.
const MaxAttempts = 3

// baseBackoff is the first retry delay; each subsequent attempt doubles it.
const baseBackoff = 300 * time.Millisecond

// Retry runs fn up to MaxAttempts times, backing off with jitter between
// attempts. Permanent provider errors stop the loop immediately; transient
// ones (and untyped network errors) are retried until attempts run out.
func Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseBackoff << (attempt - 1)
			delay += time.Duration(rand.Int63n(int64(delay / 2)))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !models.IsTransient(err) {
			return err
		}
	}
	return err
}
