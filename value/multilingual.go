package value

import (
	"strings"
)

// Multilingual is a text value in the primary and secondary language.
// Primary is authoritative; an empty Secondary falls back to Primary when
// the value is resolved for submission.
type Multilingual struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
}

// Bilingual returns a Multilingual with both languages set to the same text.
func Bilingual(text string) Multilingual {
	return Multilingual{Primary: text, Secondary: text}
}

// Resolved returns a copy whose Secondary falls back to Primary.
func (m Multilingual) Resolved() Multilingual {
	if m.Secondary == "" {
		m.Secondary = m.Primary
	}
	return m
}

// HasPrimary reports whether the primary text is non-blank.
func (m Multilingual) HasPrimary() bool {
	return strings.TrimSpace(m.Primary) != ""
}

// HasSecondary reports whether the secondary text is non-blank.
func (m Multilingual) HasSecondary() bool {
	return strings.TrimSpace(m.Secondary) != ""
}

// Map returns the wire shape {primary, secondary}.
func (m Multilingual) Map() map[string]any {
	return map[string]any{
		"primary":   m.Primary,
		"secondary": m.Secondary,
	}
}

// MultilingualFrom extracts a Multilingual from v.
// Handles: Multilingual, *Multilingual, map[string]any and map[string]string
// with only "primary"/"secondary" keys holding strings. A plain string is
// not accepted; use Bilingual for that.
func MultilingualFrom(v any) (Multilingual, bool) {
	switch val := v.(type) {
	case Multilingual:
		return val, true
	case *Multilingual:
		if val == nil {
			return Multilingual{}, false
		}
		return *val, true
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return multilingualFromMap(m)
	case map[string]any:
		return multilingualFromMap(val)
	default:
		return Multilingual{}, false
	}
}

func multilingualFromMap(m map[string]any) (Multilingual, bool) {
	if len(m) == 0 {
		return Multilingual{}, false
	}
	var out Multilingual
	for k, raw := range m {
		var s string
		switch t := raw.(type) {
		case nil:
		case string:
			s = t
		default:
			return Multilingual{}, false
		}
		switch k {
		case "primary":
			out.Primary = s
		case "secondary":
			out.Secondary = s
		default:
			return Multilingual{}, false
		}
	}
	return out, true
}
