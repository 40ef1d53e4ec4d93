package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"

	"empresascan/internal/model"
)

// Client is an HTTP client with retry, politeness headers, and
// charset-aware body decoding. All directory requests go through it.
//
// Design decision: We wrap *http.Client rather than implementing a
// http.RoundTripper because:
//  1. The retry loop needs to re-issue whole requests, not transports
//  2. Body decoding and size limiting belong with the fetch, not the wire
//  3. Tests can inject a plain httptest server without custom transports
type Client struct {
	// httpClient performs the actual requests.
	httpClient *http.Client

	// userAgent is the User-Agent header sent with every request.
	userAgent string

	// maxBodySize limits the response body size to read.
	maxBodySize int64

	// retries is the number of retries after the initial attempt.
	retries int

	// backoff is the base wait before the first retry.
	// Each subsequent retry doubles the wait.
	backoff time.Duration

	// headers are extra headers added to every request.
	headers map[string]string

	// cookie is an optional Cookie header value.
	cookie string

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithRetries sets the number of retries after the initial attempt.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the base wait before the first retry.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithHeaders sets extra headers added to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithCookie sets the Cookie header value for every request.
func WithCookie(cookie string) Option {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying *http.Client.
// Useful for tests and for callers that need a custom transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client with the given per-request timeout.
func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		userAgent:   "empresascan/1.0",
		maxBodySize: 5 * 1024 * 1024, // 5MB
		retries:     3,
		backoff:     500 * time.Millisecond,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get fetches the URL with retries and returns the decoded page.
// A non-2xx final response returns both the page (with status metadata)
// and an error, so callers can still record the failed fetch.
func (c *Client) Get(ctx context.Context, pageURL string) (*model.Page, error) {
	return c.fetch(ctx, pageURL)
}

// fetch runs the retry loop for one URL. All requests are plain GETs;
// the retry policy assumes re-issuing the request is safe.
func (c *Client) fetch(ctx context.Context, pageURL string) (*model.Page, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			c.logger.Debug("retrying request",
				"url", pageURL,
				"attempt", attempt,
				"wait", wait,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		page, err := c.do(ctx, pageURL)
		if err == nil {
			page.Attempts = attempt + 1
			return page, nil
		}
		lastErr = err

		// Context errors and non-retryable statuses end the loop early.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return page, err
		}
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrRetriesExhausted, pageURL, lastErr)
}

// do performs a single HTTP attempt.
func (c *Client) do(ctx context.Context, pageURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.5")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	page := &model.Page{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Headers:     resp.Header,
		FetchedAt:   time.Now(),
	}

	body, err := c.readBody(resp)
	if err != nil {
		return page, err
	}
	page.Body = body
	page.ComputeHash()
	page.TruncateBody()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return page, &StatusError{Code: resp.StatusCode, URL: pageURL}
	}

	return page, nil
}

// readBody reads the response body decoded to UTF-8 and bounded by
// maxBodySize. The charset comes from the Content-Type header or, failing
// that, sniffing the first bytes of the document.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, c.maxBodySize)

	decoded, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		// Fall back to the raw bytes when the charset is unknown.
		return io.ReadAll(limited)
	}

	return io.ReadAll(decoded)
}

// retryable reports whether an error is worth retrying.
// Network errors are retryable; status errors only for the transient
// server statuses.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	// Anything that never produced a response (DNS, connect, TLS,
	// timeout) is treated as transient.
	return true
}
