package handlers

import (
	"net/http"
	"strings"

	"onboarding-gateway/internal/crm"
)

// ProgressRequest updates a contact with funnel progress. Custom holds
// friendly field names; unmappable names are skipped, not fatal.
type ProgressRequest struct {
	Email     string            `json:"email" validate:"required,email"`
	Phone     string            `json:"phone,omitempty"`
	FirstName string            `json:"firstName,omitempty"`
	LastName  string            `json:"lastName,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Custom    map[string]string `json:"custom,omitempty"`
}

// UpdateProgress upserts a contact with the supplied tags and custom
// fields. Partial field mapping degrades gracefully: the mapped fields
// are written and the unmapped names are reported back as skipped.
func (h *Handlers) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.CRMConfigured() {
		writeServiceDisabled(w)
		return
	}

	var req ProgressRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var pairs []crm.FieldValue
	var skipped []string
	if len(req.Custom) > 0 {
		var err error
		pairs, skipped, err = h.fields.Translate(r.Context(), req.Custom)
		if err != nil {
			// Catalog unavailable: proceed without custom fields rather
			// than losing the whole progress update.
			h.logger.Warn("field catalog unavailable, skipping custom fields")
			for name := range req.Custom {
				skipped = append(skipped, name)
			}
		}
	}

	contactID, err := h.crm.UpsertContact(r.Context(), crm.UpsertRequest{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Tags:         req.Tags,
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
