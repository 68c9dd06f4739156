package schema

import (
	"log/slog"
	"sort"

	"github.com/shopworks/attrkit/value"
)

// Drift describes a stored custom value whose key the product type does
// not declare.
type Drift struct {
	// Field is the orphan key
	Field string `yaml:"field" json:"field"`

	// Synthesized is true when a field definition was generated for the key
	Synthesized bool `yaml:"synthesized" json:"synthesized"`

	// Type is the kind given to the synthesized field
	Type FieldType `yaml:"type,omitempty" json:"type,omitempty"`

	// Inferred is true when Type was guessed from the shape of the stored
	// value and may not match the original definition
	Inferred bool `yaml:"inferred,omitempty" json:"inferred,omitempty"`
}

// Assemble produces the schema for an editing session.
//
// Declared custom fields of pt win and are used as given, ordered by
// DisplayOrder then declaration order. Without declared fields, a field is
// synthesized for each key of existing (the custom values of the record
// being edited) so that no stored value is lost. Otherwise the schema is
// empty and fields may be added by hand with Schema.WithField.
//
// The returned drift list names every key of existing that the schema did
// not declare. An error is returned only for invalid declared fields.
func Assemble(pt *ProductType, existing map[string]any) (*Schema, []Drift, error) {
	id := ""
	if pt != nil {
		id = pt.ID
	}

	orphans := orphanKeys(pt, existing)

	if pt != nil && len(pt.CustomFields) > 0 {
		s, err := New(id, pt.CustomFields)
		if err != nil {
			return nil, nil, err
		}
		drift := make([]Drift, 0, len(orphans))
		for _, k := range orphans {
			drift = append(drift, Drift{Field: k})
		}
		return s, drift, nil
	}

	if len(orphans) == 0 {
		return Empty(id), nil, nil
	}

	fields := make([]Field, 0, len(orphans))
	drift := make([]Drift, 0, len(orphans))
	for i, k := range orphans {
		t, inferred := inferFieldType(existing[k])
		if inferred {
			slog.Warn("custom field kind inferred from stored value",
				"product_type", id, "field", k, "type", t)
		}
		fields = append(fields, Field{
			Name:         k,
			Label:        Label{Primary: k, Secondary: k},
			Type:         t,
			DisplayOrder: i,
		})
		drift = append(drift, Drift{Field: k, Synthesized: true, Type: t, Inferred: inferred})
	}

	s, err := New(id, fields)
	if err != nil {
		return nil, nil, err
	}
	return s, drift, nil
}

// orphanKeys returns the sorted keys of existing that pt does not declare.
// Base field names are never custom fields and are skipped.
func orphanKeys(pt *ProductType, existing map[string]any) []string {
	declared := make(map[string]bool)
	if pt != nil {
		for _, f := range pt.CustomFields {
			declared[f.Name] = true
		}
	}
	var keys []string
	for k := range existing {
		if k == "" || declared[k] || IsBaseField(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// inferFieldType guesses the kind of a stored value. An object holding only
// string "primary"/"secondary" members reads as multilingual-text; any other
// object or list reads as structured-value. Both are guesses: a
// structured-value that happens to have that exact shape is
// indistinguishable, so the result is flagged as inferred. Scalars read as
// text.
func inferFieldType(v any) (FieldType, bool) {
	if _, ok := value.MultilingualFrom(v); ok {
		return FieldMultilingual, true
	}
	switch v.(type) {
	case map[string]any, []any:
		return FieldStructured, true
	}
	return FieldText, false
}
