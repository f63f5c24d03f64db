package crm

// FieldValue pairs a provider field ID with the value to store
type FieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Contact is the subset of the provider's contact record this service reads
type Contact struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone,omitempty"`
	FirstName    string       `json:"firstName,omitempty"`
	LastName     string       `json:"lastName,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	CustomFields []FieldValue `json:"customField,omitempty"`
}

// CustomFieldValue returns the stored value for a provider field ID, or
// "" when the contact has no value for it.
func (c *Contact) CustomFieldValue(fieldID string) string {
	for _, fv := range c.CustomFields {
		if fv.Field == fieldID {
			return fv.Value
		}
	}
	return ""
}

// UpsertRequest creates or updates a contact keyed by email
type UpsertRequest struct {
	Email        string       `json:"email"`
	Phone        string       `json:"phone,omitempty"`
	FirstName    string       `json:"firstName,omitempty"`
	LastName     string       `json:"lastName,omitempty"`
	LocationID   string       `json:"locationId"`
	Tags         []string     `json:"tags,omitempty"`
	CustomFields []FieldValue `json:"customFields,omitempty"`
}

// CustomField is one entry of the provider's custom-field catalog,
// normalized from the provider's varying response shapes.
type CustomField struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Type    string        `json:"fieldType"`
	Options []FieldOption `json:"options,omitempty"`
}

// FieldOption is one selectable option of a choice-type custom field
type FieldOption struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label,omitempty"`
	Value string `json:"value,omitempty"`
}
