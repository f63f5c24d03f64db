package handlers

import (
	"net/http"

	"onboarding-gateway/internal/aml"
	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
)

// AMLCreateClientBody registers a funnel contact with the AML vendor
type AMLCreateClientBody struct {
	Email         string `json:"email" validate:"required,email"`
	EntityType    string `json:"entityType" validate:"required,oneof=individual organisation sole_trader"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	CompanyName   string `json:"companyName,omitempty"`
	CompanyNumber string `json:"companyNumber,omitempty"`
	TradingName   string `json:"tradingName,omitempty"`
}

// PingAML checks connectivity and credentials against the AML vendor
func (h *Handlers) PingAML(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AMLConfigured() || h.aml == nil {
		writeServiceDisabled(w)
		return
	}

	if err := h.aml.Ping(r.Context()); err != nil {
		h.writeProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok": true,
	})
}

// CreateAMLClient registers the contact for AML verification and records
// the vendor client ID and initial status against the CRM contact.
func (h *Handlers) CreateAMLClient(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AMLConfigured() || h.aml == nil {
		writeServiceDisabled(w)
		return
	}

	var req AMLCreateClientBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	record, err := h.aml.CreateClient(r.Context(), aml.CreateClientRequest{
		Status: "PROSPECT",
		Entity: aml.Entity{
			Type:          aml.EntityType(req.EntityType),
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Name:          req.CompanyName,
			CompanyNumber: req.CompanyNumber,
			TradingName:   req.TradingName,
			Email:         req.Email,
		},
	})
	if err != nil {
		h.writeProviderError(w, err)
		return
	}

	// Best effort: the AML client exists even if the CRM write fails.
	if h.cfg.CRMConfigured() {
		status := record.DeterminationStatus
		if status == "" {
			status = "IN_PROGRESS"
		}
		pairs, _, terr := h.fields.Translate(r.Context(), map[string]string{
			fieldmap.FieldAMLClientID: record.ID,
			fieldmap.FieldAMLStatus:   status,
		})
		if terr == nil && len(pairs) > 0 {
			if _, uerr := h.crm.UpsertContact(r.Context(), crm.UpsertRequest{
				Email:        req.Email,
				CustomFields: pairs,
			}); uerr != nil {
				h.logger.Warn("recording aml client on contact failed")
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"clientId": record.ID,
		"status":   record.DeterminationStatus,
	})
}

// GetAMLStatus fetches the current verification status for a client
func (h *Handlers) GetAMLStatus(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.AMLConfigured() || h.aml == nil {
		writeServiceDisabled(w)
		return
	}

	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		writeMessage(w, http.StatusBadRequest, false, "clientId is required")
		return
	}

	record, err := h.aml.ClientStatus(r.Context(), clientID)
	if err != nil {
		h.writeProviderError(w, err)
		return
	}

	body := map[string]interface{}{
		"ok":     true,
		"status": record.DeterminationStatus,
	}
	if record.LastDetermination != nil {
		body["riskLevel"] = record.LastDetermination.RiskLevel
	}
	writeJSON(w, http.StatusOK, body)
}
