// Package fetch provides the HTTP client used for every upstream read:
// the schedule page, spreadsheet htmlview markup and CSV tab exports.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/pokrovsky/timetable-api/pkg/errors"
)

// Fetcher is the contract the resolver, site scraper and watcher consume.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// Client fetches text over HTTP with bounded retries and exponential backoff
// on transient failures.
type Client struct {
	http      *http.Client
	userAgent string
	retries   int
	backoff   time.Duration
	logger    *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// WithBackoff sets the base backoff delay; it doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a fetcher with the given total timeout and user agent.
func NewClient(timeout time.Duration, userAgent string, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 35 * time.Second
	}
	c := &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		retries:   2,
		backoff:   time.Second,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches the URL and returns the response body as text. Transport
// errors and retryable statuses (5xx, 429) are retried with exponential
// backoff; exhausted retries surface as an upstream error.
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			c.logger.Debug("retrying fetch",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", appErrors.Wrap(ctx.Err(), appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
			case <-time.After(delay):
			}
		}

		body, retryable, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", appErrors.Wrap(lastErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
}

func (c *Client) do(ctx context.Context, url string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return "", retryable, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}
	return string(body), false, nil
}
