package handlers

import (
	"net/http"
	"strings"

	"onboarding-gateway/internal/common/logging"
	"onboarding-gateway/internal/crm"
)

// ContactBody is a general contact-form submission
type ContactBody struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message,omitempty"`
}

// SubmitContact records a contact-form submission as a CRM contact and
// tags it so the sales automation follows up.
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.CRMConfigured() {
		writeServiceDisabled(w)
		return
	}

	var req ContactBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	first, last := splitName(req.Name)

	contactID, err := h.crm.UpsertContact(r.Context(), crm.UpsertRequest{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     req.Phone,
		FirstName: first,
		LastName:  last,
		Tags:      []string{"Contact Form - Submitted"},
	})
	if err != nil {
		h.writeProviderError(w, err)
		return
	}

	if req.Message != "" {
		h.logger.Info("contact form message received",
			logging.Field{Key: "contact_id", Value: contactID},
		)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":        true,
		"contactId": contactID,
	})
}

// splitName separates a free-text name into first and last on the final
// space. Single-word names go in as first name only.
func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], ""
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}
