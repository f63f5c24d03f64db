package crm

import (
	"context"
	"strings"

	"onboarding-gateway/internal/common/errors"
	"onboarding-gateway/internal/common/logging"
)

type upsertResponse struct {
	ContactID string   `json:"contactId"`
	Contact   *Contact `json:"contact,omitempty"`
}

type listContactsResponse struct {
	Contacts []Contact `json:"contacts"`
}

// UpsertContact creates or updates the contact keyed by email and
// returns the provider contact ID.
func (c *Client) UpsertContact(ctx context.Context, req UpsertRequest) (string, error) {
	if req.Email == "" {
		return "", errors.ValidationError("email is required")
	}
	req.LocationID = c.cfg.LocationID

	var out upsertResponse
	if err := c.do(ctx, "POST", "/contacts/upsert", req, &out); err != nil {
		return "", err
	}

	if out.ContactID != "" {
		return out.ContactID, nil
	}
	if out.Contact != nil && out.Contact.ID != "" {
		return out.Contact.ID, nil
	}
	return "", errors.InternalError("crm upsert returned no contact id", nil)
}

// FindContactByEmail looks a contact up by email address.
//
// The provider exposes no server-side query for this, so the lookup is a
// linear scan over the contacts listing endpoint. Acceptable at this
// contact volume; revisit if the book of contacts grows past a few
// thousand.
func (c *Client) FindContactByEmail(ctx context.Context, email string) (*Contact, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, errors.ValidationError("email is required")
	}

	var out listContactsResponse
	if err := c.do(ctx, "GET", "/contacts/", nil, &out); err != nil {
		return nil, err
	}

	for i := range out.Contacts {
		if strings.ToLower(strings.TrimSpace(out.Contacts[i].Email)) == normalized {
			return &out.Contacts[i], nil
		}
	}

	c.logger.Debug("contact not found by email",
		logging.Field{Key: "contacts_scanned", Value: len(out.Contacts)},
	)
	return nil, errors.NotFoundError("contact")
}

// FindContactByField looks a contact up by the value of one custom field
// (used for resume-UID lookup).
func (c *Client) FindContactByField(ctx context.Context, fieldID, value string) (*Contact, error) {
	if fieldID == "" || value == "" {
		return nil, errors.ValidationError("field id and value are required")
	}

	var out listContactsResponse
	if err := c.do(ctx, "GET", "/contacts/", nil, &out); err != nil {
		return nil, err
	}

	for i := range out.Contacts {
		if out.Contacts[i].CustomFieldValue(fieldID) == value {
			return &out.Contacts[i], nil
		}
	}
	return nil, errors.NotFoundError("contact")
}
