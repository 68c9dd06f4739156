// Package wire encodes normalized records in their wire shape as
// google.protobuf.Struct values and protobuf JSON.
package wire

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shopworks/attrkit/multilingual"
)

// CustomFieldsKey is the wire key holding custom field values.
const CustomFieldsKey = "customFieldsData"

// ToStruct converts a record into its wire form.
func ToStruct(rec multilingual.NormalizedRecord) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(rec.ToMap())
	if err != nil {
		return nil, fmt.Errorf("encoding record %q: %w", rec.ID, err)
	}
	return s, nil
}

// FromStruct reads a record from its wire form. Malformed values are left
// unset and reported.
func FromStruct(s *structpb.Struct) (multilingual.NormalizedRecord, []*multilingual.NormalizationError) {
	return multilingual.Decode(s.AsMap())
}

// Option configures Marshal.
type Option func(*protojson.MarshalOptions)

// WithIndent produces multi-line output indented by indent.
func WithIndent(indent string) Option {
	return func(o *protojson.MarshalOptions) {
		o.Multiline = true
		o.Indent = indent
	}
}

// Marshal encodes a record as JSON.
func Marshal(rec multilingual.NormalizedRecord, opts ...Option) ([]byte, error) {
	s, err := ToStruct(rec)
	if err != nil {
		return nil, err
	}
	mo := protojson.MarshalOptions{}
	for _, opt := range opts {
		opt(&mo)
	}
	data, err := mo.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling record %q: %w", rec.ID, err)
	}
	return data, nil
}

// Parse decodes a JSON record into its wire form without interpreting it.
// Invalid JSON or a non-object document is an error.
func Parse(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("unmarshaling record: %w", err)
	}
	return s, nil
}

// Unmarshal decodes a JSON record. Invalid JSON or a non-object document is
// an error; malformed values inside a valid object are reported as issues.
func Unmarshal(data []byte) (multilingual.NormalizedRecord, []*multilingual.NormalizationError, error) {
	s, err := Parse(data)
	if err != nil {
		return multilingual.NormalizedRecord{}, nil, err
	}
	rec, issues := FromStruct(s)
	return rec, issues, nil
}

// Problem describes a wire value that does not have the expected shape.
type Problem struct {
	Field   string
	Code    string
	Message string
}

// Check reports wire-shape problems of a record: bilingual attributes that
// are not {primary, secondary} objects, numeric attributes holding anything
// but a number or null, tags that
// are not a list of strings and custom field keys that are not machine
// names. Problems are sorted by field.
func Check(s *structpb.Struct) []Problem {
	var problems []Problem
	for key, v := range s.GetFields() {
		switch {
		case multilingual.IsAttribute(key):
			if !isBilingual(v) {
				problems = append(problems, Problem{
					Field: key, Code: "not_bilingual",
					Message: fmt.Sprintf("expected {primary, secondary}, got %s", Kind(v)),
				})
			}
		case multilingual.IsNumericAttribute(key):
			if k := Kind(v); k != "number" && k != "null" {
				problems = append(problems, Problem{
					Field: key, Code: "not_number",
					Message: fmt.Sprintf("expected a number, got %s", Kind(v)),
				})
			}
		case key == "tags":
			if !isStringList(v) {
				problems = append(problems, Problem{
					Field: key, Code: "not_string_list",
					Message: "expected a list of strings",
				})
			}
		case key == CustomFieldsKey:
			problems = append(problems, checkCustom(v)...)
		}
	}
	sort.Slice(problems, func(i, j int) bool {
		if problems[i].Field != problems[j].Field {
			return problems[i].Field < problems[j].Field
		}
		return problems[i].Code < problems[j].Code
	})
	return problems
}

func checkCustom(v *structpb.Value) []Problem {
	custom := v.GetStructValue()
	if custom == nil {
		return []Problem{{
			Field: CustomFieldsKey, Code: "not_object",
			Message: fmt.Sprintf("expected an object, got %s", Kind(v)),
		}}
	}
	var problems []Problem
	for key := range custom.GetFields() {
		if !isMachineName(key) {
			problems = append(problems, Problem{
				Field:   CustomFieldsKey + "." + key,
				Code:    "invalid_key",
				Message: "custom field keys should be machine names; use snake_case",
			})
		}
	}
	return problems
}

func isMachineName(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

func isBilingual(v *structpb.Value) bool {
	obj := v.GetStructValue()
	if obj == nil || len(obj.GetFields()) == 0 {
		return false
	}
	for k, member := range obj.GetFields() {
		if k != "primary" && k != "secondary" {
			return false
		}
		switch Kind(member) {
		case "string", "null":
		default:
			return false
		}
	}
	return true
}

func isStringList(v *structpb.Value) bool {
	list := v.GetListValue()
	if list == nil {
		return false
	}
	for _, item := range list.GetValues() {
		if Kind(item) != "string" {
			return false
		}
	}
	return true
}

// Kind returns the JSON kind of a wire value.
func Kind(v *structpb.Value) string {
	switch v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "null"
	case *structpb.Value_NumberValue:
		return "number"
	case *structpb.Value_StringValue:
		return "string"
	case *structpb.Value_BoolValue:
		return "bool"
	case *structpb.Value_StructValue:
		return "object"
	case *structpb.Value_ListValue:
		return "array"
	default:
		return "unknown"
	}
}

// InconsistentCustomTypes returns the custom field keys whose values have
// different kinds across records, with the kinds seen (sorted). Useful
// when auditing records written under different versions of a product type.
func InconsistentCustomTypes(records []*structpb.Struct) map[string][]string {
	keyKinds := make(map[string]map[string]bool)
	for _, rec := range records {
		custom := rec.GetFields()[CustomFieldsKey].GetStructValue()
		for key, v := range custom.GetFields() {
			if keyKinds[key] == nil {
				keyKinds[key] = make(map[string]bool)
			}
			keyKinds[key][Kind(v)] = true
		}
	}

	inconsistent := make(map[string][]string)
	for key, kinds := range keyKinds {
		if len(kinds) < 2 {
			continue
		}
		list := make([]string, 0, len(kinds))
		for k := range kinds {
			list = append(list, k)
		}
		sort.Strings(list)
		inconsistent[key] = list
	}
	return inconsistent
}
