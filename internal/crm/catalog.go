package crm

import (
	"context"
	"encoding/json"
)

// The provider returns the custom-field catalog in several shapes: a
// bare array, an object wrapping the array under one of a few known
// keys, or an object whose first array-valued property holds it. Each
// extraction strategy is tried in order; first success wins.

type extractStrategy func(payload interface{}) ([]interface{}, bool)

func extractBareArray(payload interface{}) ([]interface{}, bool) {
	arr, ok := payload.([]interface{})
	return arr, ok
}

func extractKnownKey(key string) extractStrategy {
	return func(payload interface{}) ([]interface{}, bool) {
		obj, ok := payload.(map[string]interface{})
		if !ok {
			return nil, false
		}
		arr, ok := obj[key].([]interface{})
		return arr, ok
	}
}

func extractFirstArrayValue(payload interface{}) ([]interface{}, bool) {
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, false
	}
	for _, v := range obj {
		if arr, ok := v.([]interface{}); ok {
			return arr, true
		}
	}
	return nil, false
}

var catalogStrategies = []extractStrategy{
	extractBareArray,
	extractKnownKey("customFields"),
	extractKnownKey("fields"),
	extractKnownKey("data"),
	extractFirstArrayValue,
}

// FetchCustomFields retrieves and normalizes the provider's custom-field
// catalog. Entries missing an id or name are dropped rather than failing
// the whole fetch.
func (c *Client) FetchCustomFields(ctx context.Context) ([]CustomField, error) {
	var payload interface{}
	if err := c.do(ctx, "GET", "/custom-fields/", nil, &payload); err != nil {
		return nil, err
	}
	return NormalizeCatalog(payload), nil
}

// NormalizeCatalog turns a decoded catalog payload of any supported
// shape into a uniform field list.
func NormalizeCatalog(payload interface{}) []CustomField {
	var raw []interface{}
	for _, strategy := range catalogStrategies {
		if arr, ok := strategy(payload); ok {
			raw = arr
			break
		}
	}

	fields := make([]CustomField, 0, len(raw))
	for _, item := range raw {
		rec, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		field := CustomField{
			ID:   firstString(rec, "id", "fieldId"),
			Name: firstString(rec, "name", "label"),
			Type: firstString(rec, "fieldType", "type"),
		}
		if field.ID == "" || field.Name == "" {
			continue
		}
		if field.Type == "" {
			field.Type = "text"
		}

		if opts := firstValue(rec, "options", "choices"); opts != nil {
			field.Options = normalizeOptions(opts)
		}

		fields = append(fields, field)
	}
	return fields
}

func normalizeOptions(v interface{}) []FieldOption {
	// Options arrive either as objects or plain strings.
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}

	options := make([]FieldOption, 0, len(arr))
	for _, item := range arr {
		switch o := item.(type) {
		case map[string]interface{}:
			options = append(options, FieldOption{
				ID:    firstString(o, "id"),
				Label: firstString(o, "label", "name"),
				Value: firstString(o, "value"),
			})
		case string:
			options = append(options, FieldOption{Label: o, Value: o})
		}
	}
	return options
}

func firstString(rec map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := rec[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstValue(rec map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := rec[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// DecodeCatalog is a convenience for tests and fixtures: it decodes raw
// JSON and normalizes it in one step.
func DecodeCatalog(raw []byte) ([]CustomField, error) {
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return NormalizeCatalog(payload), nil
}
