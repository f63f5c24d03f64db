package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
	"onboarding-gateway/internal/payments"
)

// webhookEvent is the envelope the payment processor posts to the
// webhook endpoint
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object payments.CheckoutSession `json:"object"`
	} `json:"data"`
}

// CheckoutBody opens a deposit checkout session for a contact
type CheckoutBody struct {
	Email       string `json:"email" validate:"required,email"`
	AmountPence int64  `json:"amountPence" validate:"required,gt=0"`
	Description string `json:"description,omitempty"`
	SuccessURL  string `json:"successUrl" validate:"required,url"`
	CancelURL   string `json:"cancelUrl" validate:"required,url"`
}

// ConfirmBody reconciles a completed checkout session
type ConfirmBody struct {
	SessionID string `json:"sessionId" validate:"required"`
}

// CreateCheckout opens a hosted checkout session for the onboarding
// deposit and records the session against the CRM contact.
func (h *Handlers) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.PaymentsConfigured() || h.payments == nil {
		writeServiceDisabled(w)
		return
	}

	var req CheckoutBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	description := req.Description
	if description == "" {
		description = "Onboarding deposit"
	}

	session, err := h.payments.CreateCheckoutSession(r.Context(), payments.CreateSessionRequest{
		CustomerEmail: req.Email,
		AmountPence:   req.AmountPence,
		Description:   description,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
	})
	if err != nil {
		h.writeProviderError(w, err)
		return
	}

	// Best effort: the session is usable even if the CRM write fails.
	if h.cfg.CRMConfigured() {
		h.recordDeposit(r, req.Email, map[string]string{
			fieldmap.FieldCheckoutSession: session.ID,
			fieldmap.FieldDepositStatus:   "pending",
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":        true,
		"sessionId": session.ID,
		"url":       session.URL,
	})
}

// ConfirmCheckout fetches a checkout session and, when paid, reconciles
// the deposit status back into the CRM contact.
func (h *Handlers) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.PaymentsConfigured() || h.payments == nil {
		writeServiceDisabled(w)
		return
	}

	var req ConfirmBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.payments.GetSession(r.Context(), req.SessionID)
	if err != nil {
		h.writeProviderError(w, err)
		return
	}

	paid := session.PaymentStatus == "paid"
	if paid && h.cfg.CRMConfigured() && session.CustomerEmail != "" {
		h.recordDeposit(r, session.CustomerEmail, map[string]string{
			fieldmap.FieldDepositStatus: "paid",
			fieldmap.FieldDepositPaidAt: h.now().UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"paid":   paid,
		"status": session.PaymentStatus,
	})
}

// PaymentsWebhook receives completion events pushed by the payment
// processor. The payload must carry a valid HMAC signature; completed,
// paid sessions are reconciled into the CRM the same way a manual
// confirm is. Unrecognized event types are acknowledged and ignored.
func (h *Handlers) PaymentsWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.PaymentsConfigured() || h.payments == nil {
		writeServiceDisabled(w)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if !h.payments.VerifyWebhookSignature(payload, r.Header.Get("X-Webhook-Signature")) {
		h.logger.Warn("webhook signature rejected")
		writeMessage(w, http.StatusUnauthorized, false, "Invalid signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if event.Type == "checkout.session.completed" {
		session := event.Data.Object
		if session.PaymentStatus == "paid" && session.CustomerEmail != "" && h.cfg.CRMConfigured() {
			h.recordDeposit(r, session.CustomerEmail, map[string]string{
				fieldmap.FieldDepositStatus: "paid",
				fieldmap.FieldDepositPaidAt: h.now().UTC().Format(time.RFC3339),
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"received": true,
	})
}

func (h *Handlers) recordDeposit(r *http.Request, email string, values map[string]string) {
	pairs, _, err := h.fields.Translate(r.Context(), values)
	if err != nil || len(pairs) == 0 {
		h.logger.Warn("deposit fields could not be mapped")
		return
	}
	if _, err := h.crm.UpsertContact(r.Context(), crm.UpsertRequest{
		Email:        email,
		CustomFields: pairs,
	}); err != nil {
		h.logger.Warn("recording deposit on contact failed")
	}
}
