package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"onboarding-gateway/internal/common/errors"
	"onboarding-gateway/internal/common/logging"
)

// The recovery flow must not reveal whether an account exists, which
// check failed, or whether a code was pending. Every security-relevant
// outcome of the reset-request endpoint produces this exact body.
const genericResetMessage = "If your details matched, a verification code has been sent."

// genericVerifyMessage collapses mismatch, expiry and absent-code
// outcomes of the verify endpoint into one user-facing message.
const genericVerifyMessage = "Invalid code or code has expired. Please request a new code."

// genericEmailMessage covers the reminder and email-uid endpoints, which
// share the reset-request enumeration contract.
const genericEmailMessage = "If your details matched, an email has been sent."

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("failed to encode response", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, ok bool, message string) {
	writeJSON(w, status, map[string]interface{}{
		"ok":      ok,
		"message": message,
	})
}

func writeServiceDisabled(w http.ResponseWriter) {
	writeMessage(w, http.StatusServiceUnavailable, false, "This service is not available at this time.")
}

func writeOperationFailed(w http.ResponseWriter) {
	writeMessage(w, http.StatusInternalServerError, false, "Something went wrong. Please try again.")
}

// decodeAndValidate decodes a JSON body into dst and runs struct
// validation, writing a specific 400 on failure. Returns false when the
// request has already been answered.
func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, false, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return jsonFieldName(fe) + " is required"
		case "email":
			return jsonFieldName(fe) + " must be a valid email address"
		default:
			return jsonFieldName(fe) + " is invalid"
		}
	}
	return "Invalid request"
}

func jsonFieldName(fe validator.FieldError) string {
	// Field() reflects the Go name; requests keep them aligned with the
	// JSON keys in lower camel case.
	name := fe.Field()
	if name == "" {
		return "field"
	}
	return lowerFirst(name)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]|0x20) + s[1:]
}

// writeProviderError maps a provider call failure to a response without
// leaking provider internals.
func (h *Handlers) writeProviderError(w http.ResponseWriter, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		switch appErr.Type {
		case errors.ErrTypeValidation:
			writeMessage(w, http.StatusBadRequest, false, appErr.Message)
			return
		case errors.ErrTypeNotFound:
			writeMessage(w, http.StatusNotFound, false, appErr.Message)
			return
		}
	}
	h.logger.Error("provider call failed", err)
	writeOperationFailed(w)
}
