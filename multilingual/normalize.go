package multilingual

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/shopworks/attrkit/value"
)

// tagSeparator joins tags in the editing form.
const tagSeparator = ", "

// ToSubmission converts a flat record into its normalized form.
//
// Bilingual attributes take their primary text from Fields and their
// secondary text from Secondary, falling back to the primary. Numeric
// attributes are coerced; a blank one becomes nil (cleared) and a value that
// does not parse is kept as given so ValidateTopLevel can report it. Tags are split on commas, trimmed and
// emptied of blank entries. Custom multilingual values are resolved the same
// way as attributes. The input is not modified.
func ToSubmission(flat FlatRecord) NormalizedRecord {
	rec := NormalizedRecord{
		ID:               flat.ID,
		ProductType:      flat.ProductType,
		Text:             make(map[string]value.Multilingual),
		Attributes:       make(map[string]any),
		CustomFieldsData: make(map[string]any, len(flat.CustomFields)),
	}

	for k, v := range flat.Fields {
		switch {
		case IsAttribute(k):
			m := toMultilingual(v)
			if s, ok := flat.Secondary[k]; ok && s != "" {
				m.Secondary = s
			}
			rec.Text[k] = m.Resolved()

		case k == keyTags:
			tags := value.TextSlice(v, value.WithDelimiter(","))
			if tags == nil {
				tags = []string{}
			}
			rec.Tags = tags

		case slices.Contains(integerAttributes, k):
			if value.IsBlank(v) {
				rec.Attributes[k] = nil
				continue
			}
			n, ok := value.Number(v)
			if !ok || n != float64(int64(n)) {
				slog.Debug("keeping non-integer attribute as given", "attribute", k, "value", v)
				rec.Attributes[k] = v
				continue
			}
			rec.Attributes[k] = int64(n)

		case slices.Contains(decimalAttributes, k):
			if value.IsBlank(v) {
				rec.Attributes[k] = nil
				continue
			}
			n, ok := value.Number(v)
			if !ok {
				slog.Debug("keeping non-numeric attribute as given", "attribute", k, "value", v)
				rec.Attributes[k] = v
				continue
			}
			rec.Attributes[k] = n

		default:
			rec.Attributes[k] = v
		}
	}

	for k, v := range flat.CustomFields {
		if m, ok := v.(value.Multilingual); ok {
			v = m.Resolved()
		}
		rec.CustomFieldsData[k] = v
	}

	return rec
}

// toMultilingual reads the primary text of a bilingual attribute. The flat
// form normally holds a string, but an already bilingual value is accepted.
func toMultilingual(v any) value.Multilingual {
	if m, ok := value.MultilingualFrom(v); ok {
		return m
	}
	return value.Multilingual{Primary: value.Text(v)}
}

// ToEditable converts a normalized record back into the flat form.
//
// Each bilingual attribute contributes its primary text to Fields; its
// secondary text is kept in Secondary only when it differs from the primary.
// Numbers become strings, cleared numbers empty strings, and tags are joined
// with ", ".
func ToEditable(rec NormalizedRecord) FlatRecord {
	flat := FlatRecord{
		ID:           rec.ID,
		ProductType:  rec.ProductType,
		Fields:       make(map[string]any, len(rec.Text)+len(rec.Attributes)+1),
		CustomFields: make(map[string]any, len(rec.CustomFieldsData)),
	}

	for k, m := range rec.Text {
		flat.Fields[k] = m.Primary
		if m.Secondary != "" && m.Secondary != m.Primary {
			if flat.Secondary == nil {
				flat.Secondary = make(map[string]string)
			}
			flat.Secondary[k] = m.Secondary
		}
	}

	if rec.Tags != nil {
		flat.Fields[keyTags] = strings.Join(rec.Tags, tagSeparator)
	}

	for k, v := range rec.Attributes {
		if IsNumericAttribute(k) {
			if v == nil {
				flat.Fields[k] = ""
				continue
			}
			if _, ok := value.Number(v); ok {
				flat.Fields[k] = value.Text(v)
				continue
			}
		}
		flat.Fields[k] = v
	}

	maps.Copy(flat.CustomFields, rec.CustomFieldsData)
	return flat
}

// ValidateTopLevel checks the top-level attributes of a normalized record.
// It returns one message per problem, in attribute order; nil means valid.
//
// The title must carry primary-language text. Any bilingual attribute with
// primary text must also carry secondary text. Numeric attributes must hold
// numbers unless cleared.
func ValidateTopLevel(rec NormalizedRecord) []string {
	var msgs []string

	if !rec.Title().HasPrimary() {
		msgs = append(msgs, fmt.Sprintf("%s is required in the primary language.", AttributeLabel("title")))
	}

	for _, k := range Attributes {
		m, ok := rec.Text[k]
		if !ok {
			continue
		}
		if m.HasPrimary() && !m.HasSecondary() {
			msgs = append(msgs, fmt.Sprintf("%s requires a secondary-language value.", AttributeLabel(k)))
		}
	}

	for _, k := range slices.Concat(integerAttributes, decimalAttributes) {
		v, ok := rec.Attributes[k]
		if !ok || v == nil {
			continue
		}
		switch v.(type) {
		case int64, float64:
		default:
			msgs = append(msgs, fmt.Sprintf("%s must be a number.", AttributeLabel(k)))
		}
	}

	return msgs
}
