// Package bankformat maps the column headers of an uploaded table onto the
// canonical transaction fields, either via a known bank layout or by
// content inspection.
package bankformat

// Field is one of the four canonical transaction attributes.
type Field string

const (
	FieldDate        Field = "Date"
	FieldDescription Field = "Description"
	FieldAmount      Field = "Amount"
	FieldCategory    Field = "Category"
)

// Layout describes a known bank export format: the lowercase header names
// it ships with and the canonical field each one carries.
type Layout struct {
	Name    string
	Columns map[string]Field
}

// KnownLayouts returns the built-in bank layout table. Declaration order is
// significant: the first layout whose headers are all present wins.
func KnownLayouts() []Layout {
	return []Layout{
		{
			Name: "monzo",
			Columns: map[string]Field{
				"date":     FieldDate,
				"name":     FieldDescription,
				"amount":   FieldAmount,
				"category": FieldCategory,
			},
		},
		{
			Name: "revolut",
			Columns: map[string]Field{
				"started date": FieldDate,
				"description":  FieldDescription,
				"amount":       FieldAmount,
				"category":     FieldCategory,
			},
		},
		{
			Name: "barclays",
			Columns: map[string]Field{
				"date":   FieldDate,
				"memo":   FieldDescription,
				"amount": FieldAmount,
			},
		},
	}
}

// FormatAutoDetected is the format name reported when no known layout
// matched and the mapping was inferred from column contents.
const FormatAutoDetected = "auto-detected"
