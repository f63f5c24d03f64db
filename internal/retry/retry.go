// Package retry provides retry with exponential backoff for outbound
// provider calls. Retryability is decided over the classified transport
// error tag set, with a narrow substring fallback for third-party errors
// that carry no structure.
package retry

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"onboarding-gateway/internal/common/logging"
	"onboarding-gateway/internal/transport"
)

// Policy holds configuration for retry operations.
type Policy struct {
	// MaxAttempts is the maximum number of attempts (including the initial attempt)
	MaxAttempts int

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay caps exponential growth of the delay
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (e.g. 2.0 doubles the delay)
	Multiplier float64

	// RetryableStatuses is the set of HTTP status codes worth retrying
	RetryableStatuses map[int]bool

	// RetryableKinds is the set of transport error kinds worth retrying
	RetryableKinds map[transport.ErrorKind]bool
}

// DefaultPolicy returns the default retry policy: 3 attempts, 1s initial
// delay, 10s cap, doubling backoff, retrying server errors and rate limits.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		RetryableStatuses: map[int]bool{
			http.StatusInternalServerError: true,
			http.StatusBadGateway:          true,
			http.StatusServiceUnavailable:  true,
			http.StatusGatewayTimeout:      true,
			http.StatusTooManyRequests:     true,
		},
		RetryableKinds: map[transport.ErrorKind]bool{
			transport.KindTimeout:           true,
			transport.KindConnectionReset:   true,
			transport.KindConnectionRefused: true,
			transport.KindDNS:               true,
		},
	}
}

// DelayForAttempt returns the backoff delay before retry attempt k
// (0-indexed): min(InitialDelay * Multiplier^k, MaxDelay).
func (p Policy) DelayForAttempt(attempt int) time.Duration {
	d := time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt)))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// IsRetryable reports whether err is worth another attempt under the policy.
func (p Policy) IsRetryable(err error) bool {
	var te *transport.Error
	if errors.As(err, &te) {
		if te.Kind == transport.KindHTTPStatus {
			return p.RetryableStatuses[te.StatusCode]
		}
		return p.RetryableKinds[te.Kind]
	}

	// Fallback for errors without structured kinds.
	return transport.LooksTransient(err)
}

// Do executes fn, retrying retryable failures with exponential backoff.
//
// The last error is propagated to the caller as-is, never wrapped in a
// "retries exhausted" type. Non-retryable errors propagate immediately
// without consuming further attempts. With MaxAttempts of 1 no retry or
// delay logic executes at all.
func Do(ctx context.Context, policy Policy, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == policy.MaxAttempts-1 {
			break
		}

		if !policy.IsRetryable(lastErr) {
			return lastErr
		}

		delay := policy.DelayForAttempt(attempt)
		logging.Debug("retrying after backoff",
			logging.Field{Key: "attempt", Value: attempt + 1},
			logging.Field{Key: "max_attempts", Value: policy.MaxAttempts},
			logging.Field{Key: "delay_ms", Value: delay.Milliseconds()},
			logging.Field{Key: "error", Value: lastErr.Error()},
		)

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}

	return lastErr
}

// DoRequest performs an HTTP request with retry. The request is rebuilt
// for every attempt so bodies are safe to resend.
//
// Responses with a status in the policy's retryable set are treated as
// failures and retried; any other response, including non-429 4xx, is
// returned to the caller immediately as-is.
func DoRequest(ctx context.Context, policy Policy, client *http.Client, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response

	err := Do(ctx, policy, func() error {
		req, err := build(ctx)
		if err != nil {
			return err
		}

		r, err := client.Do(req)
		if err != nil {
			return transport.Classify(err)
		}

		if policy.RetryableStatuses[r.StatusCode] {
			r.Body.Close()
			return transport.StatusError(r.StatusCode)
		}

		resp = r
		return nil
	})

	if err != nil {
		return nil, err
	}
	return resp, nil
}
