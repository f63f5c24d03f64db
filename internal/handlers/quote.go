package handlers

import (
	"net/http"

	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
)

// QuoteBody is a quote funnel submission
type QuoteBody struct {
	Email              string `json:"email" validate:"required,email"`
	FirstName          string `json:"firstName,omitempty"`
	LastName           string `json:"lastName,omitempty"`
	Phone              string `json:"phone,omitempty"`
	CompanyName        string `json:"companyName,omitempty"`
	CompanyNumber      string `json:"companyNumber,omitempty"`
	EngagementType     string `json:"engagementType,omitempty"`
	BusinessType       string `json:"businessType,omitempty"`
	TurnoverBand       string `json:"turnoverBand,omitempty"`
	RecommendedPackage string `json:"recommendedPackage,omitempty"`
	SelectedPackage    string `json:"selectedPackage,omitempty"`
}

// SubmitQuote upserts the quote submission as a CRM contact. Field
// mapping degrades the same way progress updates do: whatever resolves
// is applied, the rest is reported as skipped.
func (h *Handlers) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.CRMConfigured() {
		writeServiceDisabled(w)
		return
	}

	var req QuoteBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	values := map[string]string{}
	putIfSet(values, fieldmap.FieldCompanyName, req.CompanyName)
	putIfSet(values, fieldmap.FieldCompanyNumber, req.CompanyNumber)
	putIfSet(values, fieldmap.FieldEngagementType, req.EngagementType)
	putIfSet(values, fieldmap.FieldBusinessType, req.BusinessType)
	putIfSet(values, fieldmap.FieldTurnoverBand, req.TurnoverBand)
	putIfSet(values, fieldmap.FieldRecommendedPackage, req.RecommendedPackage)
	putIfSet(values, fieldmap.FieldSelectedPackage, req.SelectedPackage)

	var (
		pairs   []crm.FieldValue
		skipped []string
	)
	if len(values) > 0 {
		var err error
		pairs, skipped, err = h.fields.Translate(r.Context(), values)
		if err != nil {
			// Catalog unavailable: submit the contact anyway, without
			// the custom fields.
			h.logger.Warn("field catalog unavailable, submitting quote without custom fields")
			pairs = nil
			for name := range values {
				skipped = append(skipped, name)
			}
		}
	}

	contactID, err := h.crm.UpsertContact(r.Context(), crm.UpsertRequest{
		Email:        req.Email,
		Phone:        req.Phone,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Tags:         []string{"Quote - Submitted"},
		CustomFields: pairs,
	})
	if err != nil {
		h.writeProviderError(w, err)
		return
	}

	body := map[string]interface{}{
		"ok":        true,
		"contactId": contactID,
	}
	if len(skipped) > 0 {
		body["warning"] = "Some fields could not be mapped and were skipped"
		body["missingFields"] = skipped
	}
	writeJSON(w, http.StatusOK, body)
}

func putIfSet(values map[string]string, name, value string) {
	if value != "" {
		values[name] = value
	}
}
