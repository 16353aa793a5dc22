package connector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/job-scanner/internal/logging"
	"github.com/job-scanner/internal/retry"
)

const maxResponseBytes = 10 << 20 // 10 MiB payload cap

// Client is the shared outbound HTTP client used by all connectors. One
// request, one 30s timeout; retries with backoff on transport errors and
// 429, honoring Retry-After when the provider sends one.
type Client struct {
	httpClient *http.Client
	userAgent  string
	retryCfg   retry.Config
}

// NewClient creates a Client with the given per-request timeout.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		retryCfg:   retry.DefaultConfig(),
	}
}

// SetRetryConfig overrides the retry policy. Test hook.
func (c *Client) SetRetryConfig(cfg retry.Config) {
	c.retryCfg = cfg
}

// Get fetches url and returns the body and status code. Non-2xx responses
// are returned as an error in the form "HTTP {status}: {statusText}" so
// the taxonomy classifier can extract the code.
func (c *Client) Get(ctx context.Context, url string) ([]byte, int, error) {
	logger := logging.FromContext(ctx)

	var body []byte
	var status int

	err := retry.WithBackoff(ctx, c.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json, application/xml, text/html, */*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http GET %s: %w", url, err)
		}
		defer resp.Body.Close()

		status = resp.StatusCode

		if resp.StatusCode == http.StatusTooManyRequests {
			// Providers that send Retry-After get their wish before
			// the next backoff attempt.
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if seconds, convErr := strconv.Atoi(ra); convErr == nil && seconds > 0 && seconds <= 60 {
					logger.WithField("retryAfter", seconds).Warn("Rate limited, honoring Retry-After")
					_ = retry.Sleep(ctx, time.Duration(seconds)*time.Second)
				}
			}
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			// Only 429 is worth retrying; other statuses will not
			// change between attempts.
			return retry.Permanent(fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, status, err
	}
	return body, status, nil
}
