package handlers

import (
	"net/http"
)

// HealthCheck reports service liveness and which provider integrations
// are configured.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"providers": map[string]bool{
			"crm":      h.cfg.CRMConfigured(),
			"aml":      h.cfg.AMLConfigured(),
			"payments": h.cfg.PaymentsConfigured(),
		},
	})
}
