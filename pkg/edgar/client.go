package edgar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Client fetches archive resources with per-host pacing and retries.
type Client struct {
	config     Config
	httpClient *http.Client
	hostTimers map[string]time.Time
	timerMu    sync.Mutex
}

// NewClient creates a Client.
func NewClient(config Config) *Client {
	config.defaults()

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(request *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		hostTimers: make(map[string]time.Time),
	}
}

// Fetch returns the body of resourceURL. Transient errors (5xx, timeouts)
// are retried with exponential backoff.
func (client *Client) Fetch(ctx context.Context, resourceURL string) ([]byte, error) {
	retryDelay := client.config.RetryBaseDelay
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < client.config.MaxRetries; attempt++ {
		if attempt > 0 {
			currentDelay := retryDelay * time.Duration(1<<uint(attempt-1))
			if err := sleep(ctx, currentDelay); err != nil {
				return nil, err
			}
		}

		body, err := client.fetchAttempt(ctx, resourceURL)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
		client.config.Logger.Debug("retrying fetch", "url", resourceURL, "attempt", attempt+1, "error", err)
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", client.config.MaxRetries, lastErr)
}

// DownloadFile stores the body of resourceURL at localPath after passing it
// through convert, which may be nil. An existing non-empty file is kept and
// reported as skipped.
func (client *Client) DownloadFile(ctx context.Context, resourceURL string, localPath string, convert func([]byte) ([]byte, error)) (int64, bool, error) {
	existingInfo, err := os.Stat(localPath)
	if err == nil && existingInfo.Size() > 0 {
		return existingInfo.Size(), true, nil
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return 0, false, fmt.Errorf("failed to create directory for %s: %w", localPath, err)
	}

	body, err := client.Fetch(ctx, resourceURL)
	if err != nil {
		return 0, false, err
	}
	if convert != nil {
		if body, err = convert(body); err != nil {
			return 0, false, fmt.Errorf("failed to convert %s: %w", resourceURL, err)
		}
	}

	temporaryPath := localPath + ".partial"
	if err := os.WriteFile(temporaryPath, body, 0644); err != nil {
		os.Remove(temporaryPath)
		return 0, false, fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	if err := os.Rename(temporaryPath, localPath); err != nil {
		os.Remove(temporaryPath)
		return 0, false, fmt.Errorf("failed to move %s into place: %w", localPath, err)
	}

	return int64(len(body)), false, nil
}

// fetchAttempt performs a single request.
func (client *Client) fetchAttempt(ctx context.Context, resourceURL string) ([]byte, error) {
	parsedURL, err := url.Parse(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", resourceURL, err)
	}
	if err := client.waitForHost(ctx, parsedURL.Host); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("User-Agent", client.config.UserAgent)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", resourceURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 500 || response.StatusCode == http.StatusTooManyRequests {
		return nil, &retryableHTTPError{StatusCode: response.StatusCode, URL: resourceURL}
	}
	if response.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: response.StatusCode, URL: resourceURL}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}
	return body, nil
}

// HTTPError is a non-retryable HTTP status.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// retryableHTTPError represents an HTTP error that should trigger a retry.
type retryableHTTPError struct {
	StatusCode int
	URL        string
}

func (e *retryableHTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// isRetryableError returns true if the error warrants a retry attempt.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var retryable *retryableHTTPError
	if errors.As(err, &retryable) {
		return true
	}
	errMsg := err.Error()
	retryablePatterns := []string{
		"connection reset",
		"connection refused",
		"timeout",
		"EOF",
		"broken pipe",
		"temporary failure",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// waitForHost enforces per-host pacing: RateLimit plus a random jitter
// since the previous request.
func (client *Client) waitForHost(ctx context.Context, host string) error {
	client.timerMu.Lock()
	defer client.timerMu.Unlock()

	interval := client.config.RateLimit
	if client.config.Jitter > 0 {
		interval += rand.N(client.config.Jitter)
	}

	if lastRequestTime, ok := client.hostTimers[host]; ok {
		if elapsed := time.Since(lastRequestTime); elapsed < interval {
			if err := sleep(ctx, interval-elapsed); err != nil {
				return err
			}
		}
	}

	client.hostTimers[host] = time.Now()
	return nil
}

func sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
