package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"onboarding-gateway/internal/common/logging"
	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
	"onboarding-gateway/internal/resetcode"
	"onboarding-gateway/internal/uid"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// ResetRequestBody initiates resume-ID recovery
type ResetRequestBody struct {
	Surname string `json:"surname" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

// ResetVerifyBody completes recovery with the emailed code
type ResetVerifyBody struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// RequestReset generates a verification code for the contact matching
// surname+email and stores its hash and expiry in the CRM.
//
// Every security-relevant outcome (no such contact, surname mismatch,
// storage success) returns the same 200 body so the endpoint cannot be
// used to enumerate accounts. Only validation failures and the
// not-configured state answer differently.
func (h *Handlers) RequestReset(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.CRMConfigured() {
		writeServiceDisabled(w)
		return
	}

	var req ResetRequestBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	surname := strings.ToLower(strings.TrimSpace(req.Surname))

	contact, err := h.crm.FindContactByEmail(r.Context(), email)
	if err != nil || contact == nil {
		writeMessage(w, http.StatusOK, true, genericResetMessage)
		return
	}

	if strings.ToLower(strings.TrimSpace(contact.LastName)) != surname {
		writeMessage(w, http.StatusOK, true, genericResetMessage)
		return
	}

	code, err := resetcode.Generate()
	if err != nil {
		h.logger.Error("reset code generation failed", err)
		writeMessage(w, http.StatusOK, true, genericResetMessage)
		return
	}

	expiry := resetcode.ExpiresAt(h.now())

	resolved, err := h.fields.Resolve(r.Context(), []string{
		fieldmap.FieldResetCodeHash,
		fieldmap.FieldResetCodeExpiry,
	})
	if err != nil {
		h.logger.Error("reset fields unresolved", err)
		writeMessage(w, http.StatusOK, true, genericResetMessage)
		return
	}

	// A new request silently overwrites any earlier hash and expiry,
	// invalidating outstanding codes. The tag triggers the CRM email
	// automation that delivers the plaintext code out-of-band.
	_, err = h.crm.UpsertContact(r.Context(), crm.UpsertRequest{
		Email: email,
		CustomFields: []crm.FieldValue{
			{Field: resolved[fieldmap.FieldResetCodeHash], Value: resetcode.Hash(code)},
			{Field: resolved[fieldmap.FieldResetCodeExpiry], Value: strconv.FormatInt(expiry.UnixMilli(), 10)},
		},
		Tags: []string{"UID Reset Code - Send"},
	})
	if err != nil {
		h.logger.Error("storing reset code failed", err)
	}

	writeMessage(w, http.StatusOK, true, genericResetMessage)
}

// VerifyReset checks the supplied code against the stored hash and, when
// valid and unexpired, issues a fresh resume ID and clears the code so
// it cannot be replayed.
func (h *Handlers) VerifyReset(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.CRMConfigured() {
		writeServiceDisabled(w)
		return
	}

	var req ResetVerifyBody
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	code := strings.TrimSpace(req.Code)
	if !codePattern.MatchString(code) {
		writeMessage(w, http.StatusBadRequest, false, "Invalid code format")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	resolved, err := h.fields.Resolve(r.Context(), []string{
		fieldmap.FieldResetCodeHash,
		fieldmap.FieldResetCodeExpiry,
		fieldmap.FieldUniqueID,
	})
	if err != nil {
		h.logger.Error("reset fields unresolved", err)
		writeOperationFailed(w)
		return
	}

	contact, err := h.crm.FindContactByEmail(r.Context(), email)
	if err != nil || contact == nil {
		h.logger.Debug("verify: contact not found")
		writeMessage(w, http.StatusBadRequest, false, genericVerifyMessage)
		return
	}

	storedHash := contact.CustomFieldValue(resolved[fieldmap.FieldResetCodeHash])
	storedExpiry := contact.CustomFieldValue(resolved[fieldmap.FieldResetCodeExpiry])
	if storedHash == "" || storedExpiry == "" {
		h.logger.Debug("verify: no pending code")
		writeMessage(w, http.StatusBadRequest, false, genericVerifyMessage)
		return
	}

	expiryMillis, err := strconv.ParseInt(storedExpiry, 10, 64)
	if err != nil || resetcode.IsExpired(time.UnixMilli(expiryMillis), h.now()) {
		h.logger.Debug("verify: code expired")
		writeMessage(w, http.StatusBadRequest, false, genericVerifyMessage)
		return
	}

	if !resetcode.Verify(code, storedHash) {
		h.logger.Debug("verify: code mismatch")
		writeMessage(w, http.StatusBadRequest, false, genericVerifyMessage)
		return
	}

	newUID, err := uid.Generate()
	if err != nil {
		h.logger.Error("uid generation failed", err)
		writeOperationFailed(w)
		return
	}

	// Clear the stored hash and expiry so the code cannot be reused.
	_, err = h.crm.UpsertContact(r.Context(), crm.UpsertRequest{
		Email: email,
		CustomFields: []crm.FieldValue{
			{Field: resolved[fieldmap.FieldUniqueID], Value: newUID},
			{Field: resolved[fieldmap.FieldResetCodeHash], Value: ""},
			{Field: resolved[fieldmap.FieldResetCodeExpiry], Value: ""},
		},
		Tags: []string{"UID Reset - Done", "UID Email - Send"},
	})
	if err != nil {
		h.logger.Error("storing new uid failed", err)
		writeOperationFailed(w)
		return
	}

	h.logger.Info("resume id reset completed",
		logging.Field{Key: "contact_id", Value: contact.ID},
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"newUid":  newUID,
		"message": "Your unique ID has been reset successfully.",
	})
}
