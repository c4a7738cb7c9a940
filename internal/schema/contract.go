// Package schema defines the declared schema for the hospital dimension:
// the validation contract the cleaner enforces and the column definitions
// warehouse backends use to render DDL.
//
// The contract replaces dynamic type inference: every expected column names
// its type up front, and missing values are represented as nil, never as a
// sentinel number or placeholder string.
package schema

// Canonical column names for the hospital dimension. The loader maps raw CSV
// headers onto these via the contract's HeaderMap.
const (
	ColFacilityID   = "facility_id"
	ColFacilityName = "facility_name"
	ColCity         = "city"
	ColState        = "state"
	ColZIP          = "zip_code"
	ColHospitalType = "hospital_type"
	ColEmergency    = "emergency_services"
	ColRating       = "overall_rating"

	// ColHasRating is the single derived column the cleaner appends.
	ColHasRating = "has_rating"
)

// Field declares one expected column. Required means the column must be
// present in the source header (its absence is a schema error); Nullable
// means individual cells may be missing (nil) even when the column exists.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"` // "text" | "int" | "bool"
	Required bool     `json:"required,omitempty"`
	Nullable bool     `json:"nullable,omitempty"`
	Truthy   []string `json:"truthy,omitempty"` // bool parsing
	Falsy    []string `json:"falsy,omitempty"`
}

// Contract declares the expected columns of the raw table and how source
// headers map onto canonical names.
type Contract struct {
	Name      string            `json:"name"`
	Fields    []Field           `json:"fields"`
	HeaderMap map[string]string `json:"header_map,omitempty"`
}

// Field returns the declared field with the given name, if any.
func (c Contract) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Required lists the names of all required fields, in declaration order.
func (c Contract) Required() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Column is a database-agnostic column definition. Type uses the same small
// vocabulary as Field.Type; backends map it onto their SQL dialect.
type Column struct {
	Name string
	Type string // "text" | "int" | "bool"
}

// CuratedColumns derives the warehouse column definitions for a curated frame
// whose columns are frameCols. Types come from the contract where declared;
// the derived has_rating column is bool; any passthrough source column the
// contract does not know is text.
func CuratedColumns(c Contract, frameCols []string) []Column {
	out := make([]Column, 0, len(frameCols))
	for _, name := range frameCols {
		typ := "text"
		if name == ColHasRating {
			typ = "bool"
		} else if f, ok := c.Field(name); ok && f.Type != "" {
			typ = f.Type
		}
		out = append(out, Column{Name: name, Type: typ})
	}
	return out
}

// HospitalContract is the default contract for the CMS Hospital General
// Information file. Pipeline configs may override it wholesale; when the
// config omits a contract this one applies.
func HospitalContract() Contract {
	return Contract{
		Name: "dim_hospital",
		Fields: []Field{
			{Name: ColFacilityID, Type: "text", Required: true},
			{Name: ColFacilityName, Type: "text", Required: true},
			{Name: ColCity, Type: "text", Required: true},
			{Name: ColState, Type: "text", Required: true},
			{Name: ColZIP, Type: "text", Nullable: true},
			{Name: ColHospitalType, Type: "text", Required: true},
			{Name: ColEmergency, Type: "bool", Nullable: true},
			{Name: ColRating, Type: "int", Required: true, Nullable: true},
		},
		HeaderMap: map[string]string{
			"Facility ID":             ColFacilityID,
			"Facility Name":           ColFacilityName,
			"City/Town":               ColCity,
			"City":                    ColCity,
			"State":                   ColState,
			"ZIP Code":                ColZIP,
			"Hospital Type":           ColHospitalType,
			"Emergency Services":      ColEmergency,
			"Hospital overall rating": ColRating,
		},
	}
}
