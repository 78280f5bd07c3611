// Package goodreads fetches the raw documents the pipeline works on: the shelf
// RSS feed and individual book detail pages.
package goodreads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL   = "https://www.goodreads.com"
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2

	maxFeedBytes = 16 << 20
	maxPageBytes = 8 << 20
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	Logger     *zap.Logger
}

// Client talks to goodreads.com over plain HTTP GETs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	retryDelay func(attempt int) time.Duration
	logger     *zap.Logger
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		retryDelay: calculateRetryDelay,
		logger:     opts.Logger,
	}
}

// FetchFeed downloads the whole RSS feed body. Rate limits and server errors
// are retried with exponential backoff; any other failure is returned as is.
func (c *Client) FetchFeed(ctx context.Context, feedURL string) (string, error) {
	if _, err := url.ParseRequestURI(feedURL); err != nil {
		return "", fmt.Errorf("invalid feed URL: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay(attempt)
			c.logger.Warn("retrying feed fetch",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.get(ctx, feedURL, "application/rss+xml, application/xml;q=0.9, */*;q=0.8", maxFeedBytes)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// FetchBookPage downloads the HTML detail page of one book. It is attempted
// once; callers decide how to treat failures.
func (c *Client) FetchBookPage(ctx context.Context, bookID string) (string, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return "", fmt.Errorf("empty book id")
	}

	pageURL := fmt.Sprintf("%s/book/show/%s", c.baseURL, url.PathEscape(bookID))
	return c.get(ctx, pageURL, "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8", maxPageBytes)
}

func (c *Client) get(ctx context.Context, target, accept string, limit int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, target)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode >= 500:
		return "", &ServerError{StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("fetched document",
		zap.String("url", target),
		zap.Int("bytes", len(body)))

	return string(body), nil
}

func calculateRetryDelay(attempt int) time.Duration {
	delay := initialRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func isRetryableError(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}
