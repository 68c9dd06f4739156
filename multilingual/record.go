// Package multilingual converts product records between the flat,
// single-language editing form and the normalized bilingual form handed to
// persistence.
package multilingual

import (
	"fmt"
	"slices"

	"github.com/shopworks/attrkit/value"
)

// Attributes are the top-level record attributes that carry text in both
// languages, in presentation order.
var Attributes = []string{
	"title", "subtitle", "description", "short_description",
	"meta_title", "meta_description", "keywords",
}

// attributeLabels are used in messages about top-level attributes.
var attributeLabels = map[string]string{
	"title":             "Title",
	"subtitle":          "Subtitle",
	"description":       "Description",
	"short_description": "Short description",
	"meta_title":        "Meta title",
	"meta_description":  "Meta description",
	"keywords":          "Keywords",
	"category":          "Category",
	"stock":             "Stock",
	"price":             "Price",
	"compare_at_price":  "Compare-at price",
}

// integerAttributes and decimalAttributes are coerced to numbers on
// submission.
var (
	integerAttributes = []string{"category", "stock"}
	decimalAttributes = []string{"price", "compare_at_price"}
)

const (
	keyID           = "id"
	keyProductType  = "productType"
	keyTags         = "tags"
	keyCustomFields = "customFieldsData"
)

// IsAttribute reports whether name is a bilingual top-level attribute.
func IsAttribute(name string) bool {
	return slices.Contains(Attributes, name)
}

// IsNumericAttribute reports whether name is a top-level attribute coerced
// to a number on submission.
func IsNumericAttribute(name string) bool {
	return slices.Contains(integerAttributes, name) || slices.Contains(decimalAttributes, name)
}

// AttributeLabel returns the display label of a top-level attribute.
func AttributeLabel(name string) string {
	if l, ok := attributeLabels[name]; ok {
		return l
	}
	return name
}

// FlatRecord is the editing form of a record: plain strings, numbers and
// booleans, with the custom field values alongside.
type FlatRecord struct {
	ID          string `json:"id,omitempty"`
	ProductType string `json:"productType,omitempty"`

	// Fields holds the top-level inputs keyed by attribute name
	Fields map[string]any `json:"fields,omitempty"`

	// Secondary holds explicit secondary-language inputs for bilingual
	// attributes. An attribute without an entry falls back to its primary.
	Secondary map[string]string `json:"secondary,omitempty"`

	// CustomFields holds the custom field values keyed by field name
	CustomFields map[string]any `json:"customFields,omitempty"`
}

// Canonical returns a copy of the record in the form ToEditable produces.
// A secondary text that is empty or equal to its primary is dropped, since
// submission falls back to the primary anyway, and custom multilingual
// values are resolved. Two flat records with the same canonical form submit
// the same normalized record.
func (f FlatRecord) Canonical() FlatRecord {
	out := FlatRecord{
		ID:           f.ID,
		ProductType:  f.ProductType,
		Fields:       make(map[string]any, len(f.Fields)),
		CustomFields: make(map[string]any, len(f.CustomFields)),
	}
	for k, v := range f.Fields {
		out.Fields[k] = v
	}
	for k, text := range f.Secondary {
		if text == "" || text == value.Text(f.Fields[k]) {
			continue
		}
		if out.Secondary == nil {
			out.Secondary = make(map[string]string)
		}
		out.Secondary[k] = text
	}
	for k, v := range f.CustomFields {
		if m, ok := v.(value.Multilingual); ok {
			v = m.Resolved()
		}
		out.CustomFields[k] = v
	}
	return out
}

// NormalizedRecord is the submission form of a record.
type NormalizedRecord struct {
	ID          string
	ProductType string

	// Text holds the bilingual top-level attributes
	Text map[string]value.Multilingual

	// Tags is nil when the record carries no tag list
	Tags []string

	// Attributes holds the remaining top-level values; numeric attributes
	// are int64 or float64, or nil when cleared
	Attributes map[string]any

	// CustomFieldsData holds custom field values keyed by field name
	CustomFieldsData map[string]any
}

// Category returns the category id, if present and numeric.
func (r NormalizedRecord) Category() (int64, bool) {
	v, ok := r.Attributes["category"].(int64)
	return v, ok
}

// Title returns the bilingual title.
func (r NormalizedRecord) Title() value.Multilingual {
	return r.Text["title"]
}

// =============================================================================
// WIRE SHAPE
// =============================================================================

// ToMap returns the wire shape of the record: every bilingual attribute as
// {primary, secondary}, tags as a list, numeric attributes as numbers and
// customFieldsData as a flat mapping. The result only holds JSON-compatible
// values.
func (r NormalizedRecord) ToMap() map[string]any {
	out := make(map[string]any, len(r.Text)+len(r.Attributes)+4)
	if r.ID != "" {
		out[keyID] = r.ID
	}
	if r.ProductType != "" {
		out[keyProductType] = r.ProductType
	}
	for k, m := range r.Text {
		out[k] = m.Map()
	}
	if r.Tags != nil {
		out[keyTags] = wireValue(r.Tags)
	}
	for k, v := range r.Attributes {
		out[k] = wireValue(v)
	}
	custom := make(map[string]any, len(r.CustomFieldsData))
	for k, v := range r.CustomFieldsData {
		custom[k] = wireValue(v)
	}
	out[keyCustomFields] = custom
	return out
}

// wireValue converts Go values the engine produces into plain JSON-shaped
// values (map[string]any, []any, string, float64, bool, nil).
func wireValue(v any) any {
	switch val := v.(type) {
	case value.Multilingual:
		return val.Map()
	case *value.Multilingual:
		if val == nil {
			return nil
		}
		return val.Map()
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = wireValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = wireValue(item)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

// NormalizationError reports a stored value that could not be read in the
// expected shape. The value is treated as unset.
type NormalizationError struct {
	Field   string
	Value   any
	Message string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalization error for field %q: %s", e.Field, e.Message)
}

// Decode reads a record in wire shape. Malformed values do not fail the
// decode: they are left unset and reported.
func Decode(raw map[string]any) (NormalizedRecord, []*NormalizationError) {
	rec := NormalizedRecord{
		Text:             make(map[string]value.Multilingual),
		Attributes:       make(map[string]any),
		CustomFieldsData: make(map[string]any),
	}
	var issues []*NormalizationError

	for k, v := range raw {
		switch {
		case k == keyID:
			rec.ID = value.Text(v)

		case k == keyProductType || k == "product_type":
			rec.ProductType = value.Text(v)

		case IsAttribute(k):
			if v == nil {
				continue
			}
			if m, ok := value.MultilingualFrom(v); ok {
				rec.Text[k] = m
				continue
			}
			if s, ok := v.(string); ok {
				// Single-language legacy value.
				rec.Text[k] = value.Multilingual{Primary: s}
				continue
			}
			issues = append(issues, &NormalizationError{
				Field: k, Value: v,
				Message: fmt.Sprintf("expected {primary, secondary}, got %T", v),
			})

		case k == keyTags:
			tags := value.TextSlice(v, value.WithDelimiter(","))
			if tags == nil {
				tags = []string{}
			}
			rec.Tags = tags

		case k == keyCustomFields || k == "custom_fields_data":
			if v == nil {
				continue
			}
			m, ok := v.(map[string]any)
			if !ok {
				issues = append(issues, &NormalizationError{
					Field: k, Value: v,
					Message: fmt.Sprintf("expected an object, got %T", v),
				})
				continue
			}
			for ck, cv := range m {
				rec.CustomFieldsData[ck] = cv
			}

		case slices.Contains(integerAttributes, k):
			if n, ok := value.Number(v); ok && n == float64(int64(n)) {
				rec.Attributes[k] = int64(n)
			} else {
				rec.Attributes[k] = v
			}

		case slices.Contains(decimalAttributes, k):
			if n, ok := value.Number(v); ok {
				rec.Attributes[k] = n
			} else {
				rec.Attributes[k] = v
			}

		default:
			rec.Attributes[k] = v
		}
	}

	return rec, issues
}
