// Package aml is the client for the AML/KYC verification vendor. The
// integration is gated end-to-end by a feature flag in addition to
// credential presence.
package aml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"onboarding-gateway/internal/circuitbreaker"
	"onboarding-gateway/internal/common/errors"
	"onboarding-gateway/internal/common/logging"
	"onboarding-gateway/internal/retry"
	"onboarding-gateway/internal/transport"
)

// Config holds the AML vendor settings
type Config struct {
	APIKey  string
	BaseURL string
}

// EntityType discriminates client entity payloads
type EntityType string

const (
	EntityIndividual   EntityType = "individual"
	EntityOrganisation EntityType = "organisation"
	EntitySoleTrader   EntityType = "sole_trader"
)

// Entity is the person or business being verified
type Entity struct {
	Type          EntityType `json:"type"`
	FirstName     string     `json:"firstName,omitempty"`
	LastName      string     `json:"lastName,omitempty"`
	Name          string     `json:"name,omitempty"`
	TradingName   string     `json:"tradingName,omitempty"`
	CompanyNumber string     `json:"companyNumber,omitempty"`
	Email         string     `json:"email,omitempty"`
	DateOfBirth   string     `json:"dateOfBirth,omitempty"`
}

// CreateClientRequest registers an entity for verification
type CreateClientRequest struct {
	Status string `json:"status"`
	Entity Entity `json:"entity"`
	Notes  string `json:"notes,omitempty"`
}

// ClientRecord is the vendor's view of a registered client
type ClientRecord struct {
	ID                  string `json:"id"`
	Status              string `json:"status"`
	DeterminationStatus string `json:"amlDeterminationStatus,omitempty"`
	LastDetermination   *struct {
		ID        string `json:"id"`
		RiskLevel string `json:"riskLevel,omitempty"`
		Status    string `json:"status"`
	} `json:"lastAmlDetermination,omitempty"`
}

// Client talks to the AML vendor
type Client struct {
	cfg     Config
	http    *http.Client
	policy  retry.Policy
	breaker *circuitbreaker.Breaker
	logger  logging.Logger
}

// NewClient creates an AML client
func NewClient(cfg Config, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Client{
		cfg:     cfg,
		http:    transport.NewHTTPClient(),
		policy:  retry.DefaultPolicy(),
		breaker: circuitbreaker.New("aml", circuitbreaker.DefaultConfig(), logger),
		logger:  logger,
	}
}

// Ping checks connectivity and credentials against the vendor
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "GET", "/v1/firm", nil, nil)
}

// CreateClient registers a new client entity for AML verification
func (c *Client) CreateClient(ctx context.Context, req CreateClientRequest) (*ClientRecord, error) {
	if req.Status == "" {
		req.Status = "PROSPECT"
	}

	var record ClientRecord
	if err := c.do(ctx, "POST", "/v1/clients", req, &record); err != nil {
		return nil, err
	}
	if record.ID == "" {
		return nil, errors.InternalError("aml vendor returned no client id", nil)
	}
	return &record, nil
}

// ClientStatus fetches the current verification status for a client
func (c *Client) ClientStatus(ctx context.Context, clientID string) (*ClientRecord, error) {
	if clientID == "" {
		return nil, errors.ValidationError("client id is required")
	}

	var record ClientRecord
	if err := c.do(ctx, "GET", "/v1/clients/"+clientID, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.InternalError("encode aml request", err)
		}
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
			req.Header.Set("Content-Type", "application/json")
			return req, nil
		})
		return err
	})
	if err != nil {
		return errors.TransientError(fmt.Sprintf("aml %s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.TransientError("read aml response", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errors.NotFoundError("aml client")
	}
	if resp.StatusCode >= 400 {
		return errors.PermanentError(
			fmt.Sprintf("aml %s %s returned %d", method, path, resp.StatusCode),
			transport.StatusError(resp.StatusCode),
		).WithCode(fmt.Sprintf("%d", resp.StatusCode))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.InternalError("decode aml response", err)
		}
	}
	return nil
}
