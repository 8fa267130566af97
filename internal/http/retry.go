package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"chinosrs/internal/config"
)

// RetryConfig configures retry behavior for HTTP requests.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration // 0 means uncapped
	BackoffFactor   float64
	RetryableStatus []int
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   config.DefaultMaxRetries,
		InitialDelay:  config.DefaultRetryDelayBase,
		BackoffFactor: 2.0,
		RetryableStatus: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

func isRetryableStatus(status int, retryable []int) bool {
	for _, s := range retryable {
		if s == status {
			return true
		}
	}
	return false
}

func (cfg RetryConfig) nextDelay(delay time.Duration) time.Duration {
	next := time.Duration(float64(delay) * cfg.BackoffFactor)
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return next
}

// DoWithRetry executes an HTTP request with exponential backoff retry.
// The request body must be resettable (use bytes.NewReader or similar).
func DoWithRetry(client *http.Client, req *http.Request, cfg RetryConfig) (*http.Response, error) {
	return DoWithRetryContext(context.Background(), client, req, cfg)
}

// DoWithRetryContext executes an HTTP request with retry and context support.
func DoWithRetryContext(ctx context.Context, client *http.Client, req *http.Request, cfg RetryConfig) (*http.Response, error) {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		reqClone := req.Clone(ctx)

		// Reset body if it's a seeker (like bytes.Reader)
		if req.Body != nil {
			if seeker, ok := req.Body.(io.Seeker); ok {
				if _, err := seeker.Seek(0, io.SeekStart); err != nil {
					return nil, fmt.Errorf("failed to rewind request body: %w", err)
				}
			}
		}

		resp, err := client.Do(reqClone)
		if err != nil {
			lastErr = err
			if attempt < cfg.MaxAttempts {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				delay = cfg.nextDelay(delay)
			}
			continue
		}

		if isRetryableStatus(resp.StatusCode, cfg.RetryableStatus) && attempt < cfg.MaxAttempts {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = cfg.nextDelay(delay)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// RetryFunc is a helper for retrying any function with exponential backoff.
type RetryFunc[T any] func() (T, error)

// Retry executes a function with exponential backoff retry.
func Retry[T any](fn RetryFunc[T], maxAttempts int, initialDelay time.Duration) (T, error) {
	return RetryWithContext(context.Background(), fn, maxAttempts, initialDelay)
}

// RetryWithContext executes a function with retry and context support.
func RetryWithContext[T any](ctx context.Context, fn RetryFunc[T], maxAttempts int, initialDelay time.Duration) (T, error) {
	var zero T
	var lastErr error
	delay := initialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * 2.0)
		}
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
