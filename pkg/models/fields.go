package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CustomField is one entry of a Zoho "custom_fields" array.
type CustomField struct {
	Label          string `json:"label"`
	APIName        string `json:"api_name"`
	Value          any    `json:"value"`
	ValueFormatted string `json:"value_formatted"`
}

// Text returns the display value of the field.
func (f CustomField) Text() string {
	if f.ValueFormatted != "" {
		return strings.TrimSpace(f.ValueFormatted)
	}
	return stringify(f.Value)
}

// CustomFields merges the "custom_fields" array and the "custom_field_hash" object
// that Zoho returns on list and detail payloads.
type CustomFields struct {
	List []CustomField  `json:"custom_fields,omitempty"`
	Hash map[string]any `json:"custom_field_hash,omitempty"`
}

// All returns every custom field, hash entries last in key order with the api name
// used as label.
func (c CustomFields) All() []CustomField {
	all := make([]CustomField, 0, len(c.List)+len(c.Hash))
	all = append(all, c.List...)
	for _, key := range slices.Sorted(maps.Keys(c.Hash)) {
		if strings.HasSuffix(key, "_unformatted") {
			continue
		}
		all = append(all, CustomField{Label: key, APIName: key, Value: c.Hash[key]})
	}
	return all
}

// Fields is the raw JSON object of an API record, kept for lookups by field names
// that vary between organizations.
type Fields map[string]json.RawMessage

// FirstString returns the first non-empty value among keys.
func (f Fields) FirstString(keys []string) (string, string) {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok {
			continue
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		if s := stringify(value); s != "" {
			return s, key
		}
	}
	return "", ""
}

// FirstDecimal returns the first numeric value present among keys.
func (f Fields) FirstDecimal(keys []string) (decimal.Decimal, string, bool) {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok {
			continue
		}
		if d, ok := parseDecimal(raw); ok {
			return d, key, true
		}
	}
	return decimal.Zero, "", false
}

// Decimal returns the numeric value stored under key, or zero.
func (f Fields) Decimal(key string) decimal.Decimal {
	d, _ := parseDecimal(f[key])
	return d
}

// String returns the value stored under key as text.
func (f Fields) String(key string) string {
	s, _ := f.FirstString([]string{key})
	return s
}

func parseDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return decimal.Zero, false
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
