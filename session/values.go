package session

import (
	"maps"

	"github.com/shopworks/attrkit/schema"
	"github.com/shopworks/attrkit/validate"
	"github.com/shopworks/attrkit/value"
)

// Seed returns the initial value set for s. Every field gets its default,
// then the stored values of existing replace them. Keys of existing that s
// does not declare are carried over as well so a save never drops them.
// Stored bilingual objects of multilingual-text fields become
// value.Multilingual.
func Seed(s *schema.Schema, existing map[string]any) map[string]any {
	values := schema.Defaults(s)
	for k, v := range existing {
		if f, ok := s.Field(k); ok {
			v = adopt(f, v)
		}
		values[k] = v
	}
	return values
}

// adopt converts a stored value to the in-memory shape of its field.
func adopt(f schema.Field, v any) any {
	if f.Type != schema.FieldMultilingual || v == nil {
		return v
	}
	if m, ok := value.MultilingualFrom(v); ok {
		return m
	}
	if s, ok := v.(string); ok {
		return value.Multilingual{Primary: s}
	}
	return v
}

// Coerce returns a copy of values with number and boolean fields converted
// from their edit-form strings. Values that do not convert are kept as
// given; validation reports them.
func Coerce(s *schema.Schema, values map[string]any) map[string]any {
	out := maps.Clone(values)
	if out == nil {
		out = make(map[string]any)
	}
	if s == nil {
		return out
	}
	for _, f := range s.Fields {
		v, ok := out[f.Name]
		if !ok {
			continue
		}
		str, isString := v.(string)
		if !isString {
			continue
		}
		switch f.Type {
		case schema.FieldNumber:
			if n, ok := value.Number(str); ok {
				out[f.Name] = n
			}
		case schema.FieldBoolean:
			out[f.Name] = value.Bool(str)
		}
	}
	return out
}

// Filled reports whether a value counts towards completion: anything but
// nil and the empty string. A multilingual value counts once its primary
// text is set.
func Filled(v any) bool {
	if m, ok := v.(value.Multilingual); ok {
		return m.Primary != ""
	}
	return value.IsSet(v)
}

// CompletionRatio returns how many fields of s hold a value, and how many
// fields there are.
func CompletionRatio(s *schema.Schema, values map[string]any) (filled, total int) {
	if s == nil {
		return 0, 0
	}
	for _, f := range s.Fields {
		if Filled(values[f.Name]) {
			filled++
		}
	}
	return filled, s.Len()
}

// Store holds the values and the latest validation errors of one editing
// session. It is not safe for concurrent use; Session serializes access.
type Store struct {
	schema *schema.Schema
	values map[string]any
	errors validate.Errors
}

// NewStore seeds a store for s from the stored values of existing.
func NewStore(s *schema.Schema, existing map[string]any) *Store {
	return &Store{
		schema: s,
		values: Seed(s, existing),
		errors: make(validate.Errors),
	}
}

// Set replaces the value of one field and clears its error.
func (st *Store) Set(name string, v any) {
	if f, ok := st.schema.Field(name); ok {
		v = adopt(f, v)
	}
	st.values[name] = v
	delete(st.errors, name)
}

// Get returns the value of one field.
func (st *Store) Get(name string) (any, bool) {
	v, ok := st.values[name]
	return v, ok
}

// Values returns a copy of all values.
func (st *Store) Values() map[string]any {
	return maps.Clone(st.values)
}

// Reset drops every edit and error and seeds the defaults again.
func (st *Store) Reset() {
	st.values = Seed(st.schema, nil)
	st.errors = make(validate.Errors)
}

// Errors returns a copy of the latest validation errors.
func (st *Store) Errors() validate.Errors {
	return maps.Clone(st.errors)
}

// SetErrors replaces the validation errors with the result of a new pass.
func (st *Store) SetErrors(errs validate.Errors) {
	st.errors = maps.Clone(errs)
	if st.errors == nil {
		st.errors = make(validate.Errors)
	}
}

// Completion returns the completion ratio of the store's values.
func (st *Store) Completion() (filled, total int) {
	return CompletionRatio(st.schema, st.values)
}

// adoptSchema switches the store to a schema that extends the current one.
// Fields new to the schema get their default unless a value exists.
func (st *Store) adoptSchema(s *schema.Schema) {
	st.schema = s
	for _, f := range s.Fields {
		if _, ok := st.values[f.Name]; !ok {
			st.values[f.Name] = schema.DefaultValue(f)
		}
	}
}
