package schema

import (
	"github.com/shopworks/attrkit/value"
)

// DefaultValue returns the initial value of a field in a fresh record.
//
//   - boolean: false
//   - number: 0
//   - single-select: the first option, or "" without options
//   - multilingual-text: an empty value.Multilingual
//   - structured-value: an empty map
//   - everything else: the declared Default (or "")
func DefaultValue(f Field) any {
	switch f.Type {
	case FieldBoolean:
		return false
	case FieldNumber:
		return float64(0)
	case FieldSelect:
		if len(f.Options) > 0 {
			return f.Options[0]
		}
		return ""
	case FieldMultilingual:
		return value.Multilingual{}
	case FieldStructured:
		return map[string]any{}
	default:
		return f.Default
	}
}

// Defaults returns the default value of every field in s.
func Defaults(s *Schema) map[string]any {
	out := make(map[string]any, s.Len())
	if s == nil {
		return out
	}
	for _, f := range s.Fields {
		out[f.Name] = DefaultValue(f)
	}
	return out
}
