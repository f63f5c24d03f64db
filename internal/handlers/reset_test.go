package handlers

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-gateway/internal/config"
	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
	"onboarding-gateway/internal/resetcode"
	"onboarding-gateway/internal/uid"
)

func TestRequestReset(t *testing.T) {
	t.Run("all outward outcomes are byte-identical", func(t *testing.T) {
		fake := newFakeCRM()
		fake.contactsByEmail["jane@example.com"] = &crm.Contact{
			ID:       "c1",
			Email:    "jane@example.com",
			LastName: "Doe",
		}
		h := newTestHandlers(testConfig(), fake, nil, nil)

		// Unknown email, surname mismatch, and genuine success must be
		// indistinguishable to the caller.
		unknown := doJSON(t, h.RequestReset, "POST", "/api/resume/reset/request",
			map[string]string{"surname": "Doe", "email": "nobody@example.com"})
		mismatch := doJSON(t, h.RequestReset, "POST", "/api/resume/reset/request",
			map[string]string{"surname": "Smith", "email": "jane@example.com"})
		success := doJSON(t, h.RequestReset, "POST", "/api/resume/reset/request",
			map[string]string{"surname": "Doe", "email": "jane@example.com"})

		assert.Equal(t, http.StatusOK, unknown.Code)
		assert.Equal(t, http.StatusOK, mismatch.Code)
		assert.Equal(t, http.StatusOK, success.Code)
		assert.Equal(t, success.Body.String(), unknown.Body.String())
		assert.Equal(t, success.Body.String(), mismatch.Body.String())
	})

	t.Run("success stores hash and expiry with send tag", func(t *testing.T) {
		fake := newFakeCRM()
		fake.contactsByEmail["jane@example.com"] = &crm.Contact{
			ID:       "c1",
			Email:    "jane@example.com",
			LastName: "Doe",
		}
		h := newTestHandlers(testConfig(), fake, nil, nil)
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		h.now = func() time.Time { return now }

		w := doJSON(t, h.RequestReset, "POST", "/api/resume/reset/request",
			map[string]string{"surname": "doe", "email": "Jane@Example.com"})
		assert.Equal(t, http.StatusOK, w.Code)

		require.Len(t, fake.upserts, 1)
		up := fake.upserts[0]
		assert.Equal(t, "jane@example.com", up.Email)
		assert.Contains(t, up.Tags, "UID Reset Code - Send")

		byField := map[string]string{}
		for _, fv := range up.CustomFields {
			byField[fv.Field] = fv.Value
		}

		hash := byField[fieldID(t, fieldmap.FieldResetCodeHash)]
		assert.Len(t, hash, 64)

		expiry, err := strconv.ParseInt(byField[fieldID(t, fieldmap.FieldResetCodeExpiry)], 10, 64)
		require.NoError(t, err)
		assert.Equal(t, now.Add(10*time.Minute).UnixMilli(), expiry)
	})

	t.Run("crm failure still answers generically", func(t *testing.T) {
		fake := newFakeCRM()
		fake.findErr = assert.AnError
		h := newTestHandlers(testConfig(), fake, nil, nil)

		w := doJSON(t, h.RequestReset, "POST", "/api/resume/reset/request",
			map[string]string{"surname": "Doe", "email": "jane@example.com"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeBody(t, w)["ok"])
	})

	t.Run("validation failures answer specifically", func(t *testing.T) {
		h := newTestHandlers(testConfig(), newFakeCRM(), nil, nil)

		w := doJSON(t, h.RequestReset, "POST", "/api/resume/reset/request",
			map[string]string{"surname": "Doe"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(t, h.RequestReset, "POST", "/api/resume/reset/request",
			map[string]string{"surname": "Doe", "email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("503 when crm unconfigured", func(t *testing.T) {
		h := newTestHandlers(&config.Config{}, newFakeCRM(), nil, nil)

		w := doJSON(t, h.RequestReset, "POST", "/api/resume/reset/request",
			map[string]string{"surname": "Doe", "email": "jane@example.com"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

// seedPendingCode stores a pending reset code on a contact the way the
// request handler would.
func seedPendingCode(t *testing.T, fake *fakeCRM, email, code string, expiresAt time.Time) {
	t.Helper()
	fake.contactsByEmail[email] = &crm.Contact{
		ID:       "c1",
		Email:    email,
		LastName: "Doe",
		CustomFields: []crm.FieldValue{
			{Field: fieldID(t, fieldmap.FieldResetCodeHash), Value: resetcode.Hash(code)},
			{Field: fieldID(t, fieldmap.FieldResetCodeExpiry), Value: strconv.FormatInt(expiresAt.UnixMilli(), 10)},
		},
	}
}

func TestVerifyReset(t *testing.T) {
	t.Run("valid code issues a new resume id and clears the code", func(t *testing.T) {
		fake := newFakeCRM()
		seedPendingCode(t, fake, "jane@example.com", "123456", time.Now().Add(5*time.Minute))
		h := newTestHandlers(testConfig(), fake, nil, nil)

		w := doJSON(t, h.VerifyReset, "POST", "/api/resume/reset/verify",
			map[string]string{"email": "jane@example.com", "code": "123456"})
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, true, body["ok"])
		newUID, _ := body["newUid"].(string)
		assert.True(t, uid.IsValid(newUID), "got %q", newUID)

		require.Len(t, fake.upserts, 1)
		up := fake.upserts[0]
		assert.Contains(t, up.Tags, "UID Reset - Done")
		assert.Contains(t, up.Tags, "UID Email - Send")

		byField := map[string]string{}
		for _, fv := range up.CustomFields {
			byField[fv.Field] = fv.Value
		}
		assert.Equal(t, newUID, byField[fieldID(t, fieldmap.FieldUniqueID)])
		assert.Equal(t, "", byField[fieldID(t, fieldmap.FieldResetCodeHash)])
		assert.Equal(t, "", byField[fieldID(t, fieldmap.FieldResetCodeExpiry)])
	})

	t.Run("failure modes collapse to one message", func(t *testing.T) {
		responses := map[string]*crm.Contact{
			"unknown contact": nil,
			"no pending code": {
				ID: "c1", Email: "jane@example.com", LastName: "Doe",
			},
		}

		var bodies []string
		for name, contact := range responses {
			fake := newFakeCRM()
			if contact != nil {
				fake.contactsByEmail["jane@example.com"] = contact
			}
			h := newTestHandlers(testConfig(), fake, nil, nil)

			w := doJSON(t, h.VerifyReset, "POST", "/api/resume/reset/verify",
				map[string]string{"email": "jane@example.com", "code": "123456"})
			assert.Equal(t, http.StatusBadRequest, w.Code, name)
			assert.Empty(t, fake.upserts, name)
			bodies = append(bodies, w.Body.String())
		}

		// Wrong code.
		fake := newFakeCRM()
		seedPendingCode(t, fake, "jane@example.com", "654321", time.Now().Add(5*time.Minute))
		h := newTestHandlers(testConfig(), fake, nil, nil)
		w := doJSON(t, h.VerifyReset, "POST", "/api/resume/reset/verify",
			map[string]string{"email": "jane@example.com", "code": "123456"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		bodies = append(bodies, w.Body.String())

		// Expired code.
		fake = newFakeCRM()
		seedPendingCode(t, fake, "jane@example.com", "123456", time.Now().Add(-time.Minute))
		h = newTestHandlers(testConfig(), fake, nil, nil)
		w = doJSON(t, h.VerifyReset, "POST", "/api/resume/reset/verify",
			map[string]string{"email": "jane@example.com", "code": "123456"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		bodies = append(bodies, w.Body.String())

		for _, b := range bodies[1:] {
			assert.Equal(t, bodies[0], b)
		}
	})

	t.Run("malformed code rejected before any lookup", func(t *testing.T) {
		fake := newFakeCRM()
		h := newTestHandlers(testConfig(), fake, nil, nil)

		for _, code := range []string{"12345", "1234567", "abcdef", "12 456"} {
			w := doJSON(t, h.VerifyReset, "POST", "/api/resume/reset/verify",
				map[string]string{"email": "jane@example.com", "code": code})
			assert.Equal(t, http.StatusBadRequest, w.Code, "code %q", code)
			assert.Contains(t, w.Body.String(), "Invalid code format", "code %q", code)
		}
	})

	t.Run("503 when crm unconfigured", func(t *testing.T) {
		h := newTestHandlers(&config.Config{}, newFakeCRM(), nil, nil)

		w := doJSON(t, h.VerifyReset, "POST", "/api/resume/reset/verify",
			map[string]string{"email": "jane@example.com", "code": "123456"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
