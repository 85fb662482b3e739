package jenkins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/jenkinsator/jenkinsator/internal/logging"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 30 * time.Second

// DefaultRetryMax is the default number of retries for transient failures.
const DefaultRetryMax = 3

// RetryPolicy bounds how often the client re-sends a GET. Writes to the
// master are sent exactly once whatever the policy says.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries: DefaultRetryMax,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
	}
}

// RetryWithBackoff calls read until it returns nil, returns an error
// shouldRetry rejects, or MaxRetries re-sends are spent. Only idempotent reads
// (config.xml, api/json, the crumb) go through here. A Retry-After from a
// throttling master or proxy replaces the computed delay, capped at MaxDelay.
func RetryWithBackoff(ctx context.Context, policy *RetryPolicy, read func() error, shouldRetry func(error) bool) error {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}

	for attempt := 0; ; attempt++ {
		err := read()
		switch {
		case err == nil:
			return nil
		case !shouldRetry(err):
			return err
		case attempt == policy.MaxRetries:
			return fmt.Errorf("max retries (%d) exceeded: %w", policy.MaxRetries, err)
		}

		wait := policy.delay(attempt, err)
		logging.Debug("retrying jenkins read", "attempt", attempt+1, "wait", wait, "error", err)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// delay is full-jitter exponential backoff, unless the master asked for a
// specific pause.
func (p *RetryPolicy) delay(attempt int, err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return min(apiErr.RetryAfter, p.MaxDelay)
	}
	ceiling := min(float64(p.BaseDelay)*math.Pow(2, float64(attempt)), float64(p.MaxDelay))
	return time.Duration(rand.Float64() * ceiling)
}

// IsTransientError reports whether a failed read is worth retrying:
// gateway and throttling statuses, timeouts and dropped connections.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
