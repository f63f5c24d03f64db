package app

import (
	"time"

	"github.com/gorilla/mux"

	"onboarding-gateway/internal/middleware"
	"onboarding-gateway/internal/ratelimit"
)

// Routes configures all HTTP routes for the application
func (a *App) Routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)

	// Health check
	router.HandleFunc("/health", a.handlers.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// CRM funnel endpoints
	api.HandleFunc("/crm/fields", a.handlers.GetFieldMap).Methods("GET")
	api.HandleFunc("/crm/progress", a.handlers.UpdateProgress).Methods("POST")
	api.HandleFunc("/quote/submit", a.handlers.SubmitQuote).Methods("POST")
	api.HandleFunc("/contact", a.handlers.SubmitContact).Methods("POST")

	// Resume recovery endpoints sit behind a strict per-IP limit: they
	// are the enumeration surface.
	limited := api.PathPrefix("/resume").Subrouter()
	limited.Use(ratelimit.Middleware(a.limiter, 5, time.Minute))
	limited.HandleFunc("/lookup", a.handlers.LookupResume).Methods("POST")
	limited.HandleFunc("/assign-uid", a.handlers.AssignUID).Methods("POST")
	limited.HandleFunc("/reset/request", a.handlers.RequestReset).Methods("POST")
	limited.HandleFunc("/reset/verify", a.handlers.VerifyReset).Methods("POST")
	limited.HandleFunc("/reminder", a.handlers.SendReminder).Methods("POST")
	limited.HandleFunc("/email-uid", a.handlers.EmailUID).Methods("POST")

	// AML passthrough
	api.HandleFunc("/aml/ping", a.handlers.PingAML).Methods("GET")
	api.HandleFunc("/aml/create-client", a.handlers.CreateAMLClient).Methods("POST")
	api.HandleFunc("/aml/status", a.handlers.GetAMLStatus).Methods("GET")

	// Deposit flow
	api.HandleFunc("/payments/checkout", a.handlers.CreateCheckout).Methods("POST")
	api.HandleFunc("/payments/confirm", a.handlers.ConfirmCheckout).Methods("POST")
	api.HandleFunc("/payments/webhook", a.handlers.PaymentsWebhook).Methods("POST")

	return router
}
