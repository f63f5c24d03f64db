package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-gateway/internal/crm"
	"onboarding-gateway/internal/fieldmap"
	"onboarding-gateway/internal/uid"
)

func TestLookupResume(t *testing.T) {
	seed := func(t *testing.T) *fakeCRM {
		t.Helper()
		fake := newFakeCRM()
		fake.contactsByField[fieldID(t, fieldmap.FieldUniqueID)+"=F3K8Q-2JQ9W"] = &crm.Contact{
			ID:    "c1",
			Email: "jane@example.com",
			CustomFields: []crm.FieldValue{
				{Field: fieldID(t, fieldmap.FieldLastCompletedStep), Value: "3"},
			},
		}
		return fake
	}

	t.Run("returns last completed step", func(t *testing.T) {
		h := newTestHandlers(testConfig(), seed(t), nil, nil)

		w := doJSON(t, h.LookupResume, "POST", "/api/resume/lookup",
			map[string]string{"uid": "F3K8Q-2JQ9W", "email": "jane@example.com"})
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "3", body["lastCompletedStep"])
	})

	t.Run("normalizes the supplied id", func(t *testing.T) {
		h := newTestHandlers(testConfig(), seed(t), nil, nil)

		w := doJSON(t, h.LookupResume, "POST", "/api/resume/lookup",
			map[string]string{"uid": " f3k8q-2jq9w ", "email": "jane@example.com"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("email mismatch answers like an unknown id", func(t *testing.T) {
		h := newTestHandlers(testConfig(), seed(t), nil, nil)

		mismatch := doJSON(t, h.LookupResume, "POST", "/api/resume/lookup",
			map[string]string{"uid": "F3K8Q-2JQ9W", "email": "other@example.com"})
		unknown := doJSON(t, h.LookupResume, "POST", "/api/resume/lookup",
			map[string]string{"uid": "AAAAA-AAAAA", "email": "jane@example.com"})

		assert.Equal(t, http.StatusNotFound, mismatch.Code)
		assert.Equal(t, http.StatusNotFound, unknown.Code)
		assert.Equal(t, unknown.Body.String(), mismatch.Body.String())
	})

	t.Run("malformed id rejected", func(t *testing.T) {
		h := newTestHandlers(testConfig(), newFakeCRM(), nil, nil)

		w := doJSON(t, h.LookupResume, "POST", "/api/resume/lookup",
			map[string]string{"uid": "not-a-uid", "email": "jane@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid resume ID format")
	})
}

func TestAssignUID(t *testing.T) {
	t.Run("mints and stores a fresh id", func(t *testing.T) {
		fake := newFakeCRM()
		h := newTestHandlers(testConfig(), fake, nil, nil)

		w := doJSON(t, h.AssignUID, "POST", "/api/resume/assign-uid",
			map[string]string{"email": "Jane@Example.com"})
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		issued, _ := body["uid"].(string)
		assert.True(t, uid.IsValid(issued), "got %q", issued)

		require.Len(t, fake.upserts, 1)
		up := fake.upserts[0]
		assert.Equal(t, "jane@example.com", up.Email)
		assert.Contains(t, up.Tags, "UID Email - Send")
		require.Len(t, up.CustomFields, 1)
		assert.Equal(t, fieldID(t, fieldmap.FieldUniqueID), up.CustomFields[0].Field)
		assert.Equal(t, issued, up.CustomFields[0].Value)
	})

	t.Run("crm failure surfaces", func(t *testing.T) {
		fake := newFakeCRM()
		fake.upsertErr = assert.AnError
		h := newTestHandlers(testConfig(), fake, nil, nil)

		w := doJSON(t, h.AssignUID, "POST", "/api/resume/assign-uid",
			map[string]string{"email": "jane@example.com"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
