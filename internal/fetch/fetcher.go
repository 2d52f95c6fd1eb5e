// Package fetch provides HTTP fetching with config-driven retry logic
// and backup-URL failover for source pages and the schema document.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"shopatlas/internal/config"
)

// Fetch errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrAllURLsFailed        = errors.New("all URLs failed")
)

const defaultMaxBodyBytes = 10 << 20 // 10 MiB

// Fetcher fetches remote documents with retries and exponential backoff.
type Fetcher struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	userAgent    string
	maxBodyBytes int64
}

// New creates a fetcher with default retry policy.
func New() *Fetcher {
	return NewWithPolicy(&config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    500,
		MaxDelayMs:        30000,
		BackoffMultiplier: 2.0,
		TimeoutSec:        30,
	})
}

// NewWithPolicy creates a fetcher with a custom retry policy.
func NewWithPolicy(retryPolicy *config.RetryPolicy) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy:  retryPolicy,
		userAgent:    "ShopAtlas/1.0 (+https://github.com/shopatlas)",
		maxBodyBytes: defaultMaxBodyBytes,
	}
}

// Fetch retrieves the content at url, retrying transient failures per the
// retry policy.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= f.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := f.retryPolicy.GetRetryDelay(attempt)
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}
		}

		content, status, err := f.fetchOnce(ctx, url)
		if err == nil {
			return content, nil
		}

		lastErr = fmt.Errorf("attempt %d/%d: %w", attempt, f.retryPolicy.MaxAttempts, err)

		// Only HTTP-level failures on certain statuses are worth retrying
		if status != 0 && !isRetryableStatus(status) {
			break
		}
	}

	return "", lastErr
}

// FetchAny tries each URL in order and returns the first success.
func (f *Fetcher) FetchAny(ctx context.Context, urls []string) (string, error) {
	var lastErr error

	for _, url := range urls {
		if url == "" {
			continue
		}

		content, err := f.Fetch(ctx, url)
		if err == nil {
			return content, nil
		}

		lastErr = err
	}

	if lastErr == nil {
		return "", ErrAllURLsFailed
	}

	return "", fmt.Errorf("%w: %w", ErrAllURLsFailed, lastErr)
}

// ReadLocalFile reads content from a local file path.
func (f *Fetcher) ReadLocalFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read local file %s: %w", path, err)
	}

	return string(content), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), resp.StatusCode, nil
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}
