// Package model defines the directory records and research candidates that flow
// through the enrichment pipeline.
package model

import (
	"strings"
	"time"
)

// UnknownValue is the placeholder written into city/state for records whose
// location has not been researched yet.
const UnknownValue = "Unknown"

// NotFoundValue is the sentinel some research responses use for email and
// license number when nothing could be located.
const NotFoundValue = "Not Found"

// RecordStatus is the listing status of a directory record.
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusActive    RecordStatus = "active"
	RecordStatusSuspended RecordStatus = "suspended"
	RecordStatusInactive  RecordStatus = "inactive"
)

// Record is a contractor listing in the directory.
type Record struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	BusinessName    *string      `json:"business_name,omitempty"`
	Category        string       `json:"category"`
	Description     string       `json:"description"`
	Address         *string      `json:"address,omitempty"`
	City            string       `json:"city"`
	State           string       `json:"state"`
	ZipCode         *string      `json:"zip_code,omitempty"`
	Latitude        *string      `json:"latitude,omitempty"`
	Longitude       *string      `json:"longitude,omitempty"`
	Phone           *string      `json:"phone,omitempty"`
	Email           *string      `json:"email,omitempty"`
	Website         *string      `json:"website,omitempty"`
	LicenseNumber   *string      `json:"license_number,omitempty"`
	YearsInBusiness *int         `json:"years_in_business,omitempty"`
	Status          RecordStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// DisplayName returns the business name when set, else the record name.
func (r Record) DisplayName() string {
	if r.BusinessName != nil && strings.TrimSpace(*r.BusinessName) != "" {
		return *r.BusinessName
	}
	return r.Name
}

// IsIncomplete reports whether the record still lacks a researched location.
// The store's incomplete predicate must agree with this.
func (r Record) IsIncomplete() bool {
	return isUnset(r.City) || isUnset(r.State)
}

// HasCoordinates reports whether both latitude and longitude are set.
func (r Record) HasCoordinates() bool {
	return r.Latitude != nil && *r.Latitude != "" && r.Longitude != nil && *r.Longitude != ""
}

func isUnset(v string) bool {
	return v == "" || v == UnknownValue
}

// RecordUpdate is a staged, field-level update. Nil fields leave the stored
// column untouched.
type RecordUpdate struct {
	Phone           *string
	Email           *string
	Website         *string
	Address         *string
	City            *string
	State           *string
	ZipCode         *string
	Description     *string
	YearsInBusiness *int
	LicenseNumber   *string
	Latitude        *string
	Longitude       *string
	UpdatedAt       time.Time
}

// IsEmpty reports whether no column besides the timestamp is staged.
func (u RecordUpdate) IsEmpty() bool {
	return u.Phone == nil && u.Email == nil && u.Website == nil &&
		u.Address == nil && u.City == nil && u.State == nil && u.ZipCode == nil &&
		u.Description == nil && u.YearsInBusiness == nil && u.LicenseNumber == nil &&
		u.Latitude == nil && u.Longitude == nil
}

// HasFullAddress reports whether street, city, state and ZIP are all staged.
func (u RecordUpdate) HasFullAddress() bool {
	return u.Address != nil && u.City != nil && u.State != nil && u.ZipCode != nil
}

// Column is one staged column/value pair.
type Column struct {
	Name  string
	Value any
}

// Columns returns the staged columns in a fixed order followed by updated_at.
func (u RecordUpdate) Columns() []Column {
	var cols []Column
	add := func(name string, v *string) {
		if v != nil {
			cols = append(cols, Column{Name: name, Value: *v})
		}
	}
	add("phone", u.Phone)
	add("email", u.Email)
	add("website", u.Website)
	add("address", u.Address)
	add("city", u.City)
	add("state", u.State)
	add("zip_code", u.ZipCode)
	add("description", u.Description)
	if u.YearsInBusiness != nil {
		cols = append(cols, Column{Name: "years_in_business", Value: *u.YearsInBusiness})
	}
	add("license_number", u.LicenseNumber)
	add("latitude", u.Latitude)
	add("longitude", u.Longitude)
	cols = append(cols, Column{Name: "updated_at", Value: u.UpdatedAt})
	return cols
}

// Stats summarizes directory coverage.
type Stats struct {
	Total           int      `json:"total" yaml:"total"`
	Incomplete      int      `json:"incomplete" yaml:"incomplete"`
	WithCoordinates int      `json:"with_coordinates" yaml:"with_coordinates"`
	IncompleteNames []string `json:"incomplete_names,omitempty" yaml:"incomplete_names,omitempty"`
}
