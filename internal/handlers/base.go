// Package handlers implements the JSON API that backs the onboarding
// funnel: contact progress updates, resume-ID recovery, AML passthrough
// and the deposit flow.
package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"onboarding-gateway/internal/aml"
	"onboarding-gateway/internal/common/logging"
	"onboarding-gateway/internal/config"
	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
	"onboarding-gateway/internal/payments"
)

// CRMClient is the subset of the CRM client the handlers use
type CRMClient interface {
	UpsertContact(ctx context.Context, req crm.UpsertRequest) (string, error)
	FindContactByEmail(ctx context.Context, email string) (*crm.Contact, error)
	FindContactByField(ctx context.Context, fieldID, value string) (*crm.Contact, error)
}

// AMLClient is the subset of the AML client the handlers use
type AMLClient interface {
	Ping(ctx context.Context) error
	CreateClient(ctx context.Context, req aml.CreateClientRequest) (*aml.ClientRecord, error)
	ClientStatus(ctx context.Context, clientID string) (*aml.ClientRecord, error)
}

// PaymentsClient is the subset of the payments client the handlers use
type PaymentsClient interface {
	CreateCheckoutSession(ctx context.Context, req payments.CreateSessionRequest) (*payments.CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*payments.CheckoutSession, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
}

// Handlers holds the dependencies for all route handlers
type Handlers struct {
	cfg      *config.Config
	logger   logging.Logger
	crm      CRMClient
	fields   *fieldmap.Cache
	aml      AMLClient
	payments PaymentsClient
	validate *validator.Validate
	now      func() time.Time
}

// New creates the handler set. Provider clients may be nil when the
// corresponding configuration block is absent; their routes report 503.
func New(cfg *config.Config, logger logging.Logger, crmClient CRMClient, fields *fieldmap.Cache, amlClient AMLClient, paymentsClient PaymentsClient) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		cfg:      cfg,
		logger:   logger,
		crm:      crmClient,
		fields:   fields,
		aml:      amlClient,
		payments: paymentsClient,
		validate: validator.New(),
		now:      time.Now,
	}
}
