package fieldmap

// Friendly names for the custom fields the funnel writes. These are the
// labels configured in the CRM; the cache resolves them to provider
// field IDs at runtime.
const (
	FieldEngagementType     = "Engagement Type"
	FieldBusinessType       = "Business Type"
	FieldTurnoverBand       = "Turnover Band"
	FieldRecommendedPackage = "Recommended Package"
	FieldSelectedPackage    = "Selected Package"
	FieldCompanyName        = "Company Name"
	FieldCompanyNumber      = "Company Number"

	FieldUniqueID          = "Unique ID"
	FieldLastCompletedStep = "Last Completed Step"

	FieldResetCodeHash   = "UID Reset Token Hash"
	FieldResetCodeExpiry = "UID Reset Token Expiry"

	FieldDepositStatus    = "Deposit Status"
	FieldCheckoutSession  = "Checkout Session ID"
	FieldDepositPaidAt    = "Deposit Paid At"

	FieldAMLStatus          = "AML Decision Status"
	FieldAMLClientID        = "AML Client ID"
	FieldAMLDeterminationID = "AML Determination ID"
)
