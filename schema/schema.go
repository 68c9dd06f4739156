// Package schema defines the custom attribute schema of a product type:
// the supported field kinds, field definitions, their defaults and display
// grouping, and how a schema is assembled for an editing session.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FieldType identifies the kind of a custom field.
type FieldType string

const (
	FieldText         FieldType = "text"
	FieldMultiline    FieldType = "multiline-text"
	FieldNumber       FieldType = "number"
	FieldBoolean      FieldType = "boolean"
	FieldSelect       FieldType = "single-select"
	FieldDate         FieldType = "date"
	FieldColor        FieldType = "color"
	FieldEmail        FieldType = "email"
	FieldPhone        FieldType = "phone"
	FieldURL          FieldType = "url"
	FieldStructured   FieldType = "structured-value"
	FieldMultilingual FieldType = "multilingual-text"
)

// FieldTypes lists every supported kind in declaration order.
var FieldTypes = []FieldType{
	FieldText, FieldMultiline, FieldNumber, FieldBoolean, FieldSelect, FieldDate,
	FieldColor, FieldEmail, FieldPhone, FieldURL, FieldStructured, FieldMultilingual,
}

// aliases accepted when reading definitions written by older admin screens.
var fieldTypeAliases = map[string]FieldType{
	"textarea":     FieldMultiline,
	"multiline":    FieldMultiline,
	"bool":         FieldBoolean,
	"checkbox":     FieldBoolean,
	"select":       FieldSelect,
	"json":         FieldStructured,
	"object":       FieldStructured,
	"multilingual": FieldMultilingual,
	"translatable": FieldMultilingual,
	"tel":          FieldPhone,
}

// ParseFieldType normalizes a kind name. Unknown kinds fall back to text.
func ParseFieldType(s string) FieldType {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	for _, t := range FieldTypes {
		if string(t) == s {
			return t
		}
	}
	if t, ok := fieldTypeAliases[s]; ok {
		return t
	}
	return FieldText
}

// Known reports whether t is one of the supported kinds.
func (t FieldType) Known() bool {
	return slices.Contains(FieldTypes, t)
}

// TextLike reports whether values of this kind are plain strings that may
// carry a declared default.
func (t FieldType) TextLike() bool {
	switch t {
	case FieldText, FieldMultiline, FieldDate, FieldColor, FieldEmail, FieldPhone, FieldURL:
		return true
	}
	return !t.Known()
}

func (t *FieldType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	*t = ParseFieldType(s)
	return nil
}

func (t *FieldType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseFieldType(s)
	return nil
}

// Label is display text in the primary and, optionally, secondary language.
// A scalar in YAML or JSON sets the primary text only.
type Label struct {
	Primary   string `yaml:"primary" json:"primary"`
	Secondary string `yaml:"secondary,omitempty" json:"secondary,omitempty"`
}

func (l *Label) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		l.Primary = node.Value
		return nil
	}
	type plain Label
	return node.Decode((*plain)(l))
}

func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.Primary = s
		return nil
	}
	type plain Label
	return json.Unmarshal(data, (*plain)(l))
}

// Field describes one custom attribute of a product type.
type Field struct {
	// Name is the stable key of the field within a schema (never translated)
	Name string `yaml:"name" json:"name"`

	// Label is the human-readable name in both languages
	Label Label `yaml:"label" json:"label"`

	// Type selects defaulting and validation behavior
	Type FieldType `yaml:"type" json:"type"`

	// Required indicates the field must have a value before submission
	Required bool `yaml:"required,omitempty" json:"required,omitempty"`

	// Options holds the allowed values; single-select only
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`

	// Default is the declared default; text-like kinds only
	Default string `yaml:"default,omitempty" json:"default,omitempty"`

	// Description is helper text shown under the input
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Searchable and Filterable are indexing hints carried through untouched
	Searchable bool `yaml:"searchable,omitempty" json:"searchable,omitempty"`
	Filterable bool `yaml:"filterable,omitempty" json:"filterable,omitempty"`

	// DisplayOrder orders fields within the schema and within a group
	DisplayOrder int `yaml:"display_order,omitempty" json:"displayOrder,omitempty"`
}

// ErrInvalidField is wrapped by every field definition error.
var ErrInvalidField = errors.New("invalid field definition")

// Normalize returns the field reduced to the attributes meaningful for its
// kind: options survive only on single-select, defaults only on text-like
// kinds. A single-select without options is rejected.
func (f Field) Normalize() (Field, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return f, fmt.Errorf("%w: empty name", ErrInvalidField)
	}
	if !f.Type.Known() {
		f.Type = FieldText
	}

	if f.Type == FieldSelect {
		opts := make([]string, 0, len(f.Options))
		for _, o := range f.Options {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
		if len(opts) == 0 {
			return f, fmt.Errorf("%w: %q is single-select but has no options", ErrInvalidField, f.Name)
		}
		f.Options = opts
	} else {
		f.Options = nil
	}

	if !f.Type.TextLike() {
		f.Default = ""
	}
	return f, nil
}

// DisplayLabel returns the text to show for the field: the primary label,
// else the secondary label, else the field name.
func (f Field) DisplayLabel() string {
	switch {
	case f.Label.Primary != "":
		return f.Label.Primary
	case f.Label.Secondary != "":
		return f.Label.Secondary
	default:
		return f.Name
	}
}

// SecondaryLabel is DisplayLabel for the secondary-language surface.
func (f Field) SecondaryLabel() string {
	if f.Label.Secondary != "" {
		return f.Label.Secondary
	}
	return f.DisplayLabel()
}

// DisplayLabel is the package-level form of Field.DisplayLabel.
func DisplayLabel(f Field) string {
	return f.DisplayLabel()
}

// BaseFields are the top-level record attributes edited outside the custom
// field form. A custom field may not reuse one of these names.
var BaseFields = []string{
	"title", "subtitle", "description", "short_description",
	"price", "compare_at_price", "category", "tags", "sku", "stock",
}

// IsBaseField reports whether name is one of BaseFields.
func IsBaseField(name string) bool {
	return slices.Contains(BaseFields, name)
}

// Schema is the ordered set of custom fields for one product type. A Schema
// is never modified after construction; changes produce a new Schema.
type Schema struct {
	// ProductType is the id of the product type the schema was built for
	ProductType string

	// Fields in presentation order
	Fields []Field

	// BaseFields are excluded from custom fields
	BaseFields []string

	index map[string]int

	groupsOnce sync.Once
	groups     Groups
}

// New builds a Schema from field definitions. Fields are normalized and
// ordered by DisplayOrder, then by declaration order.
func New(productType string, fields []Field) (*Schema, error) {
	normalized := make([]Field, 0, len(fields))
	index := make(map[string]int, len(fields))

	for _, f := range fields {
		nf, err := f.Normalize()
		if err != nil {
			return nil, err
		}
		if IsBaseField(nf.Name) {
			return nil, fmt.Errorf("%w: %q is a base field", ErrInvalidField, nf.Name)
		}
		if _, dup := index[nf.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field name %q", ErrInvalidField, nf.Name)
		}
		index[nf.Name] = len(normalized)
		normalized = append(normalized, nf)
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].DisplayOrder < normalized[j].DisplayOrder
	})
	for i, f := range normalized {
		index[f.Name] = i
	}

	return &Schema{
		ProductType: productType,
		Fields:      normalized,
		BaseFields:  slices.Clone(BaseFields),
		index:       index,
	}, nil
}

// Empty returns a schema without custom fields.
func Empty(productType string) *Schema {
	s, _ := New(productType, nil)
	return s
}

// Len returns the number of custom fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}

// Field returns a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// FieldNames returns all field names in presentation order.
func (s *Schema) FieldNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// RequiredFields returns all required field names.
func (s *Schema) RequiredFields() []string {
	if s == nil {
		return nil
	}
	var result []string
	for _, f := range s.Fields {
		if f.Required {
			result = append(result, f.Name)
		}
	}
	return result
}

// Groups returns the display grouping of the schema's fields. It is
// computed once per Schema.
func (s *Schema) Groups() Groups {
	if s == nil {
		return nil
	}
	s.groupsOnce.Do(func() {
		s.groups = Classify(s.Fields)
	})
	return s.groups
}

// WithField returns a new Schema with f appended after the existing fields.
// Used when an operator adds a field by hand.
func (s *Schema) WithField(f Field) (*Schema, error) {
	if s == nil {
		s = Empty("")
	}
	if f.DisplayOrder == 0 && len(s.Fields) > 0 {
		f.DisplayOrder = s.Fields[len(s.Fields)-1].DisplayOrder + 1
	}
	fields := append(slices.Clone(s.Fields), f)
	return New(s.ProductType, fields)
}
