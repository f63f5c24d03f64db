package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onboarding-gateway/internal/aml"
	"onboarding-gateway/internal/config"
	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
	"onboarding-gateway/internal/payments"
)

// fakeCRM satisfies CRMClient with canned contacts and records every
// upsert for assertions.
type fakeCRM struct {
	contactsByEmail map[string]*crm.Contact
	contactsByField map[string]*crm.Contact
	upserts         []crm.UpsertRequest
	upsertErr       error
	findErr         error
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		contactsByEmail: make(map[string]*crm.Contact),
		contactsByField: make(map[string]*crm.Contact),
	}
}

func (f *fakeCRM) UpsertContact(ctx context.Context, req crm.UpsertRequest) (string, error) {
	f.upserts = append(f.upserts, req)
	if f.upsertErr != nil {
		return "", f.upsertErr
	}
	return "contact-1", nil
}

func (f *fakeCRM) FindContactByEmail(ctx context.Context, email string) (*crm.Contact, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.contactsByEmail[email], nil
}

func (f *fakeCRM) FindContactByField(ctx context.Context, fieldID, value string) (*crm.Contact, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.contactsByField[fieldID+"="+value], nil
}

// catalogSource serves a catalog covering every friendly field name, so
// field resolution always succeeds unless a test swaps it out.
type catalogSource struct {
	fields []crm.CustomField
	err    error
}

func fullCatalogSource() *catalogSource {
	s := &catalogSource{}
	for i, name := range knownFieldNames {
		s.fields = append(s.fields, crm.CustomField{
			ID:   fmt.Sprintf("f%02d", i),
			Name: name,
		})
	}
	return s
}

func (s *catalogSource) FetchCustomFields(ctx context.Context) ([]crm.CustomField, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.fields, nil
}

// fieldID returns the provider ID the full catalog assigns to a
// friendly name.
func fieldID(t *testing.T, name string) string {
	t.Helper()
	for i, n := range knownFieldNames {
		if n == name {
			return fmt.Sprintf("f%02d", i)
		}
	}
	t.Fatalf("unknown field name %q", name)
	return ""
}

type fakeAML struct {
	record    *aml.ClientRecord
	statusErr error
	createErr error
	pingErr   error
}

func (f *fakeAML) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeAML) CreateClient(ctx context.Context, req aml.CreateClientRequest) (*aml.ClientRecord, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.record, nil
}

func (f *fakeAML) ClientStatus(ctx context.Context, clientID string) (*aml.ClientRecord, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.record, nil
}

type fakePayments struct {
	session   *payments.CheckoutSession
	createErr error
	getErr    error
	validSig  string
}

func (f *fakePayments) VerifyWebhookSignature(payload []byte, signature string) bool {
	return f.validSig != "" && signature == f.validSig
}

func (f *fakePayments) CreateCheckoutSession(ctx context.Context, req payments.CreateSessionRequest) (*payments.CheckoutSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakePayments) GetSession(ctx context.Context, sessionID string) (*payments.CheckoutSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

// testConfig has every provider configured
func testConfig() *config.Config {
	return &config.Config{
		Port:              "8080",
		CRMAPIKey:         "test-key",
		CRMLocationID:     "test-location",
		FieldCacheTTL:     time.Minute,
		AMLEnabled:        true,
		AMLAPIKey:         "aml-key",
		AMLBaseURL:        "https://aml.test",
		PaymentsSecretKey: "sk_test",
	}
}

func newTestHandlers(cfg *config.Config, crmClient CRMClient, amlClient AMLClient, paymentsClient PaymentsClient) *Handlers {
	return New(cfg, nil, crmClient, fieldmap.NewCache(fullCatalogSource(), time.Minute, nil), amlClient, paymentsClient)
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return out
}
