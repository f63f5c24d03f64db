// Package payments is the client for the payment processor used to take
// onboarding deposits: checkout session creation, confirmation, and
// webhook signature verification.
package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"onboarding-gateway/internal/circuitbreaker"
	"onboarding-gateway/internal/common/errors"
	"onboarding-gateway/internal/common/logging"
	"onboarding-gateway/internal/retry"
	"onboarding-gateway/internal/transport"
)

// Config holds the payment processor settings
type Config struct {
	SecretKey     string
	BaseURL       string
	WebhookSecret string
}

// CheckoutSession is a hosted payment session for the deposit
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
	PaymentIntent string `json:"payment_intent,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// CreateSessionRequest describes the deposit to collect
type CreateSessionRequest struct {
	CustomerEmail string
	AmountPence   int64
	Description   string
	SuccessURL    string
	CancelURL     string
}

// Client talks to the payment processor. The processor's API is
// form-encoded, not JSON.
type Client struct {
	cfg     Config
	http    *http.Client
	policy  retry.Policy
	breaker *circuitbreaker.Breaker
	logger  logging.Logger
}

// NewClient creates a payments client
func NewClient(cfg Config, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Client{
		cfg:     cfg,
		http:    transport.NewHTTPClient(),
		policy:  retry.DefaultPolicy(),
		breaker: circuitbreaker.New("payments", circuitbreaker.DefaultConfig(), logger),
		logger:  logger,
	}
}

// CreateCheckoutSession opens a hosted checkout session for a deposit
func (c *Client) CreateCheckoutSession(ctx context.Context, req CreateSessionRequest) (*CheckoutSession, error) {
	if req.CustomerEmail == "" {
		return nil, errors.ValidationError("customer email is required")
	}
	if req.AmountPence <= 0 {
		return nil, errors.ValidationError("amount must be positive")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("customer_email", req.CustomerEmail)
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", "gbp")
	form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", req.AmountPence))
	form.Set("line_items[0][price_data][product_data][name]", req.Description)

	var session CheckoutSession
	if err := c.do(ctx, "POST", "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession retrieves a checkout session so its payment status can be
// reconciled back into the CRM.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if sessionID == "" {
		return nil, errors.ValidationError("session id is required")
	}

	var session CheckoutSession
	if err := c.do(ctx, "GET", "/v1/checkout/sessions/"+sessionID, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// VerifyWebhookSignature checks a webhook payload against its signature
// header using HMAC-SHA256 with a constant-time comparison.
func (c *Client) VerifyWebhookSignature(payload []byte, signature string) bool {
	if c.cfg.WebhookSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.cfg.WebhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	encoded := ""
	if form != nil {
		encoded = form.Encode()
	}

	var resp *http.Response
	err := c.breaker.Execute(func() error {
		var err error
		resp, err = retry.DoRequest(ctx, c.policy, c.http, func(ctx context.Context) (*http.Request, error) {
			var reader io.Reader
			if encoded != "" {
				reader = strings.NewReader(encoded)
			}
			req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
			if encoded != "" {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			return req, nil
		})
		return err
	})
	if err != nil {
		return errors.TransientError(fmt.Sprintf("payments %s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.TransientError("read payments response", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errors.NotFoundError("checkout session")
	}
	if resp.StatusCode >= 400 {
		return errors.PermanentError(
			fmt.Sprintf("payments %s %s returned %d", method, path, resp.StatusCode),
			transport.StatusError(resp.StatusCode),
		).WithCode(fmt.Sprintf("%d", resp.StatusCode))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.InternalError("decode payments response", err)
		}
	}
	return nil
}
