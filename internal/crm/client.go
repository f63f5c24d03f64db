// Package crm is the client for the CRM provider that backs the
// onboarding funnel: contact upserts, tag management, the custom-field
// catalog, and contact lookup. It is also the persistence substrate for
// the reset-code flow, which stores code hashes in contact custom fields.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"onboarding-gateway/internal/circuitbreaker"
	"onboarding-gateway/internal/common/errors"
	"onboarding-gateway/internal/common/logging"
	"onboarding-gateway/internal/retry"
	"onboarding-gateway/internal/transport"
)

// Config holds the CRM provider settings
type Config struct {
	APIKey     string
	LocationID string
	BaseURL    string
	APIVersion string
}

// Client talks to the CRM provider. All calls go through the retry
// policy, the circuit breaker, and an outbound pacer that keeps us under
// the provider's API rate limit.
type Client struct {
	cfg     Config
	http    *http.Client
	policy  retry.Policy
	breaker *circuitbreaker.Breaker
	pacer   *rate.Limiter
	logger  logging.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRetryPolicy sets the retry policy
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithPacer sets the outbound request pacer
func WithPacer(p *rate.Limiter) Option {
	return func(c *Client) {
		c.pacer = p
	}
}

// NewClient creates a CRM client
func NewClient(cfg Config, logger logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	c := &Client{
		cfg:     cfg,
		http:    transport.NewHTTPClient(),
		policy:  retry.DefaultPolicy(),
		breaker: circuitbreaker.New("crm", circuitbreaker.DefaultConfig(), logger),
		// The provider allows 100 requests per 10 seconds per location.
		pacer:  rate.NewLimiter(rate.Limit(10), 20),
		logger: logger,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs an authenticated request against the CRM API with pacing,
// circuit breaking and retry. The response body is returned decoded into
// out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.InternalError("encode crm request", err)
		}
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return errors.TransientError("crm request cancelled while pacing", err)
	}

	var resp *http.Response
	err := c.breaker.Execute(func() error {
		var err error
		resp, err = retry.DoRequest(ctx, c.policy, c.http, func(ctx context.Context) (*http.Request, error) {
			var reader io.Reader
			if payload != nil {
				reader = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
			req.Header.Set("Version", c.cfg.APIVersion)
			req.Header.Set("Content-Type", "application/json")
			return req, nil
		})
		return err
	})
	if err != nil {
		return errors.TransientError(fmt.Sprintf("crm %s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.TransientError("read crm response", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errors.NotFoundError("crm resource")
	}
	if resp.StatusCode >= 400 {
		return errors.PermanentError(
			fmt.Sprintf("crm %s %s returned %d", method, path, resp.StatusCode),
			transport.StatusError(resp.StatusCode),
		).WithCode(fmt.Sprintf("%d", resp.StatusCode))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.InternalError("decode crm response", err)
		}
	}
	return nil
}
