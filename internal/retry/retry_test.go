package retry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-gateway/internal/transport"
)

// fastPolicy keeps test runs quick while preserving the default shape.
func fastPolicy() Policy {
	p := DefaultPolicy()
	p.InitialDelay = time.Millisecond
	p.MaxDelay = 4 * time.Millisecond
	return p
}

func TestDelayForAttempt(t *testing.T) {
	p := DefaultPolicy()

	expected := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	for attempt, want := range expected {
		assert.Equal(t, want, p.DelayForAttempt(attempt), "attempt %d", attempt)
	}
}

func TestIsRetryable(t *testing.T) {
	p := DefaultPolicy()

	t.Run("retryable statuses", func(t *testing.T) {
		for _, code := range []int{500, 502, 503, 504, 429} {
			assert.True(t, p.IsRetryable(transport.StatusError(code)), "status %d", code)
		}
	})

	t.Run("non-retryable statuses", func(t *testing.T) {
		for _, code := range []int{400, 401, 403, 404, 422} {
			assert.False(t, p.IsRetryable(transport.StatusError(code)), "status %d", code)
		}
	})

	t.Run("transport kinds", func(t *testing.T) {
		assert.True(t, p.IsRetryable(&transport.Error{Kind: transport.KindTimeout}))
		assert.True(t, p.IsRetryable(&transport.Error{Kind: transport.KindConnectionReset}))
		assert.True(t, p.IsRetryable(&transport.Error{Kind: transport.KindConnectionRefused}))
		assert.True(t, p.IsRetryable(&transport.Error{Kind: transport.KindDNS}))
		assert.False(t, p.IsRetryable(&transport.Error{Kind: transport.KindOther}))
	})

	t.Run("substring fallback for unstructured errors", func(t *testing.T) {
		assert.True(t, p.IsRetryable(errors.New("dial tcp: connection refused")))
		assert.True(t, p.IsRetryable(errors.New("read: connection reset by peer")))
		assert.False(t, p.IsRetryable(errors.New("invalid api key")))
	})
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first attempt", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastPolicy(), func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries then succeeds", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastPolicy(), func() error {
			calls++
			if calls < 3 {
				return transport.StatusError(503)
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhaustion returns last error unwrapped", func(t *testing.T) {
		lastErr := transport.StatusError(502)
		calls := 0
		err := Do(ctx, fastPolicy(), func() error {
			calls++
			if calls < 3 {
				return transport.StatusError(503)
			}
			return lastErr
		})
		assert.Equal(t, 3, calls)
		// Identity, not a wrapper type.
		assert.Same(t, lastErr, err)
	})

	t.Run("non-retryable short-circuits", func(t *testing.T) {
		boom := errors.New("invalid api key")
		calls := 0
		err := Do(ctx, fastPolicy(), func() error {
			calls++
			return boom
		})
		assert.Equal(t, 1, calls)
		assert.Equal(t, boom, err)
	})

	t.Run("single attempt policy never retries", func(t *testing.T) {
		p := fastPolicy()
		p.MaxAttempts = 1
		calls := 0
		err := Do(ctx, p, func() error {
			calls++
			return transport.StatusError(503)
		})
		assert.Equal(t, 1, calls)
		assert.Error(t, err)
	})

	t.Run("cancelled context returns last error", func(t *testing.T) {
		p := fastPolicy()
		p.InitialDelay = time.Minute
		p.MaxDelay = time.Minute

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		calls := 0
		err := Do(cctx, p, func() error {
			calls++
			return transport.StatusError(503)
		})
		assert.Equal(t, 1, calls)
		var te *transport.Error
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 503, te.StatusCode)
	})
}

func TestDoRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("retries retryable statuses", func(t *testing.T) {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		resp, err := DoRequest(ctx, fastPolicy(), srv.Client(), func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, "GET", srv.URL, nil)
		})
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})

	t.Run("non-retryable 4xx returned as-is without retry", func(t *testing.T) {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		resp, err := DoRequest(ctx, fastPolicy(), srv.Client(), func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, "GET", srv.URL, nil)
		})
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("exhaustion surfaces status error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := DoRequest(ctx, fastPolicy(), srv.Client(), func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, "GET", srv.URL, nil)
		})
		var te *transport.Error
		require.ErrorAs(t, err, &te)
		assert.Equal(t, transport.KindHTTPStatus, te.Kind)
		assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	})

	t.Run("request rebuilt for every attempt", func(t *testing.T) {
		var built int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := DoRequest(ctx, fastPolicy(), srv.Client(), func(ctx context.Context) (*http.Request, error) {
			atomic.AddInt32(&built, 1)
			return http.NewRequestWithContext(ctx, "GET", srv.URL, nil)
		})
		assert.Error(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&built))
	})
}
