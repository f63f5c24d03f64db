package handlers

import (
	"net/http"
	"strings"

	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
	"onboarding-gateway/internal/uid"
)

// ResumeLookupBody finds a saved funnel session by resume ID and email
type ResumeLookupBody struct {
	UID   string `json:"uid" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// AssignUIDBody mints a resume ID for a contact
type AssignUIDBody struct {
	Email string `json:"email" validate:"required,email"`
}

// LookupResume finds the contact holding the supplied resume ID and
// returns their last completed step. Both the ID and the email must
// match.
func (h *Handlers) LookupResume(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.CRMConfigured() {
		writeServiceDisabled(w)
		return
	}

	var req ResumeLookupBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	normalized := uid.Normalize(req.UID)
	if !uid.IsValid(normalized) {
		writeMessage(w, http.StatusBadRequest, false, "Invalid resume ID format")
		return
	}

	resolved, err := h.fields.Resolve(r.Context(), []string{
		fieldmap.FieldUniqueID,
		fieldmap.FieldLastCompletedStep,
	})
	if err != nil {
		h.logger.Error("resume fields unresolved", err)
		writeOperationFailed(w)
		return
	}

	contact, err := h.crm.FindContactByField(r.Context(), resolved[fieldmap.FieldUniqueID], normalized)
	if err != nil || contact == nil {
		writeMessage(w, http.StatusNotFound, false, "No saved session found for those details")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if strings.ToLower(strings.TrimSpace(contact.Email)) != email {
		// Same outward response as an unknown ID.
		writeMessage(w, http.StatusNotFound, false, "No saved session found for those details")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":                true,
		"lastCompletedStep": contact.CustomFieldValue(resolved[fieldmap.FieldLastCompletedStep]),
	})
}

// AssignUID mints a fresh resume ID and stores it on the contact
func (h *Handlers) AssignUID(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.CRMConfigured() {
		writeServiceDisabled(w)
		return
	}

	var req AssignUIDBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	resolved, err := h.fields.Resolve(r.Context(), []string{fieldmap.FieldUniqueID})
	if err != nil {
		h.logger.Error("resume fields unresolved", err)
		writeOperationFailed(w)
		return
	}

	newUID, err := uid.Generate()
	if err != nil {
		h.logger.Error("uid generation failed", err)
		writeOperationFailed(w)
		return
	}

	_, err = h.crm.UpsertContact(r.Context(), crm.UpsertRequest{
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		CustomFields: []crm.FieldValue{
			{Field: resolved[fieldmap.FieldUniqueID], Value: newUID},
		},
		Tags: []string{"UID Email - Send"},
	})
	if err != nil {
		h.writeProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":  true,
		"uid": newUID,
	})
}
