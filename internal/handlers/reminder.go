package handlers

import (
	"net/http"
	"strings"

	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
)

// ReminderBody asks for a resume reminder email
type ReminderBody struct {
	Surname string `json:"surname" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

// matchContact finds the contact for an email and checks the surname,
// case-insensitively. Returns nil whenever the caller should fall back to
// the generic response.
func (h *Handlers) matchContact(r *http.Request, email, surname string) *crm.Contact {
	contact, err := h.crm.FindContactByEmail(r.Context(), email)
	if err != nil || contact == nil {
		return nil
	}
	if strings.ToLower(strings.TrimSpace(contact.LastName)) != strings.ToLower(strings.TrimSpace(surname)) {
		return nil
	}
	return contact
}

// SendReminder tags the matching contact so the CRM automation sends a
// resume reminder email.
//
// Same enumeration contract as the reset-request endpoint: unknown
// email, surname mismatch, and success all produce the identical 200
// body.
func (h *Handlers) SendReminder(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.CRMConfigured() {
		writeServiceDisabled(w)
		return
	}

	var req ReminderBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if contact := h.matchContact(r, email, req.Surname); contact != nil {
		if _, err := h.crm.UpsertContact(r.Context(), crm.UpsertRequest{
			Email: email,
			Tags:  []string{"Resume Reminder - Send"},
		}); err != nil {
			h.logger.Error("tagging reminder failed", err)
		}
	}

	writeMessage(w, http.StatusOK, true, genericEmailMessage)
}

// EmailUID re-sends the contact's existing resume ID. Contacts without
// an assigned ID get the generic response too; nothing distinguishes
// them from an unknown email.
func (h *Handlers) EmailUID(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.CRMConfigured() {
		writeServiceDisabled(w)
		return
	}

	var req ReminderBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	contact := h.matchContact(r, email, req.Surname)
	if contact == nil {
		writeMessage(w, http.StatusOK, true, genericEmailMessage)
		return
	}

	resolved, err := h.fields.Resolve(r.Context(), []string{fieldmap.FieldUniqueID})
	if err != nil {
		h.logger.Error("resume fields unresolved", err)
		writeMessage(w, http.StatusOK, true, genericEmailMessage)
		return
	}

	if contact.CustomFieldValue(resolved[fieldmap.FieldUniqueID]) != "" {
		if _, err := h.crm.UpsertContact(r.Context(), crm.UpsertRequest{
			Email: email,
			Tags:  []string{"UID Email - Send"},
		}); err != nil {
			h.logger.Error("tagging uid email failed", err)
		}
	}

	writeMessage(w, http.StatusOK, true, genericEmailMessage)
}
