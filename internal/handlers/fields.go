package handlers

import (
	"net/http"

	"onboarding-gateway/internal/common/errors"
	"onboarding-gateway/internal/fieldmap"
)

var knownFieldNames = []string{
	fieldmap.FieldEngagementType,
	fieldmap.FieldBusinessType,
	fieldmap.FieldTurnoverBand,
	fieldmap.FieldRecommendedPackage,
	fieldmap.FieldSelectedPackage,
	fieldmap.FieldCompanyName,
	fieldmap.FieldCompanyNumber,
	fieldmap.FieldUniqueID,
	fieldmap.FieldLastCompletedStep,
	fieldmap.FieldResetCodeHash,
	fieldmap.FieldResetCodeExpiry,
	fieldmap.FieldDepositStatus,
	fieldmap.FieldCheckoutSession,
	fieldmap.FieldDepositPaidAt,
	fieldmap.FieldAMLStatus,
	fieldmap.FieldAMLClientID,
	fieldmap.FieldAMLDeterminationID,
}

// GetFieldMap reports which of the friendly field names resolve against
// the provider's catalog. Diagnostics endpoint for funnel configuration.
func (h *Handlers) GetFieldMap(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.CRMConfigured() {
		writeServiceDisabled(w)
		return
	}

	resolved, err := h.fields.Resolve(r.Context(), knownFieldNames)
	if err != nil && !errors.IsType(err, errors.ErrTypeFieldMapping) {
		h.writeProviderError(w, err)
		return
	}

	var missing []string
	if appErr, ok := errors.AsAppError(err); ok {
		missing = appErr.MissingFields
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"mapped":  resolved,
		"missing": missing,
	})
}
