package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Candidate is one research result: a structured guess at a record's missing
// fields, not yet validated against the store.
type Candidate struct {
	Name            string  `json:"name"`
	Found           bool    `json:"found"`
	Phone           string  `json:"phone,omitempty"`
	Email           string  `json:"email,omitempty"`
	Website         string  `json:"website,omitempty"`
	Address         string  `json:"address,omitempty"`
	City            string  `json:"city,omitempty"`
	State           string  `json:"state,omitempty"`
	ZipCode         string  `json:"zipCode,omitempty"`
	Description     string  `json:"description,omitempty"`
	YearsInBusiness FlexInt `json:"yearsInBusiness,omitempty"`
	LicenseNumber   string  `json:"licenseNumber,omitempty"`
}

// candidateWire mirrors Candidate with loosely typed fields, so one value of
// the wrong JSON type does not fail the whole array.
type candidateWire struct {
	Name            FlexString `json:"name"`
	Found           FlexBool   `json:"found"`
	Phone           FlexString `json:"phone"`
	Email           FlexString `json:"email"`
	Website         FlexString `json:"website"`
	Address         FlexString `json:"address"`
	City            FlexString `json:"city"`
	State           FlexString `json:"state"`
	ZipCode         FlexString `json:"zipCode"`
	Description     FlexString `json:"description"`
	YearsInBusiness FlexInt    `json:"yearsInBusiness"`
	LicenseNumber   FlexString `json:"licenseNumber"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var w candidateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Candidate{
		Name:            string(w.Name),
		Found:           bool(w.Found),
		Phone:           string(w.Phone),
		Email:           string(w.Email),
		Website:         string(w.Website),
		Address:         string(w.Address),
		City:            string(w.City),
		State:           string(w.State),
		ZipCode:         string(w.ZipCode),
		Description:     string(w.Description),
		YearsInBusiness: w.YearsInBusiness,
		LicenseNumber:   string(w.LicenseNumber),
	}
	return nil
}

// FlexString decodes a JSON string, or the literal text of a number or
// boolean. Null, objects and arrays decode as "".
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = ""
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil //nolint:nilerr // loosely typed research output
		}
		*f = FlexString(s)
	case '{', '[', 'n':
	default:
		*f = FlexString(data)
	}
	return nil
}

// FlexBool decodes a JSON boolean, a boolean-like string ("true", "yes",
// "1") or a number, where any non-zero value is true. Anything else is false.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = false
	if len(data) == 0 {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil //nolint:nilerr // loosely typed research output
		}
	}
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "yes" || raw == "y" {
		*f = true
		return nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		*f = FlexBool(b)
		return nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		*f = v != 0
	}
	return nil
}

// FlexInt decodes a JSON number or numeric string. Values that are neither
// (null, "N/A", "10+ years") decode as zero, which callers treat as absent.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = 0
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil //nolint:nilerr // loosely typed research output
		}
	} else {
		raw = string(data)
	}

	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		*f = FlexInt(n)
		return nil
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		*f = FlexInt(int(v))
	}
	return nil
}
