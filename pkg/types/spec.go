// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DataType is the declared type of a fixed-width column.
type DataType string

const (
	TypeBoolean DataType = "BOOLEAN"
	TypeInteger DataType = "INTEGER"
	TypeString  DataType = "STRING"
)

// ParseDataType maps a declared datatype to a DataType. Anything other than
// BOOLEAN or INTEGER is a string column.
func ParseDataType(s string) DataType {
	switch DataType(s) {
	case TypeBoolean:
		return TypeBoolean
	case TypeInteger:
		return TypeInteger
	default:
		return TypeString
	}
}

// SpecField identifies which ColumnRule attribute a spec header token sets.
type SpecField int

const (
	FieldName SpecField = iota
	FieldWidth
	FieldType
)

// specFieldTokens is the fixed header vocabulary of a spec file.
var specFieldTokens = map[string]SpecField{
	"column name": FieldName,
	"width":       FieldWidth,
	"datatype":    FieldType,
}

// LookupSpecField resolves a header token. The second result is false for
// tokens outside the vocabulary.
func LookupSpecField(token string) (SpecField, bool) {
	f, ok := specFieldTokens[token]
	return f, ok
}

// String returns the header token for the field.
func (f SpecField) String() string {
	switch f {
	case FieldName:
		return "column name"
	case FieldWidth:
		return "width"
	case FieldType:
		return "datatype"
	default:
		return "unknown"
	}
}

// ColumnRule describes one field of a fixed-width layout.
type ColumnRule struct {
	// Name is the output key for the column.
	Name string `json:"name" yaml:"name"`

	// Width is the number of bytes the column occupies.
	Width int `json:"width" yaml:"width"`

	// Type controls how the extracted text is coerced.
	Type DataType `json:"type" yaml:"type"`

	// DeclaredType is the datatype text as written in the spec file.
	DeclaredType string `json:"declared_type,omitempty" yaml:"declared_type,omitempty"`

	// Start is the byte offset of the column, derived from the widths of
	// all preceding columns.
	Start int `json:"start" yaml:"start"`
}

// End returns the exclusive end offset of the column.
func (r ColumnRule) End() int {
	return r.Start + r.Width
}
