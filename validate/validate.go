// Package validate checks custom field values against their definitions.
//
// Rules are small named functions kept in a Registry. Each field kind has an
// ordered chain of rule names; the first rule that fails decides the error
// for the field.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/shopworks/attrkit/schema"
	"github.com/shopworks/attrkit/value"
)

// ValidationError represents a validation failure for one field.
type ValidationError struct {
	Field   string
	Value   any
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %q (rule: %s): %s", e.Field, e.Rule, e.Message)
}

// Errors maps field names to human-readable messages. An empty Errors means
// the value set is valid.
type Errors map[string]string

// OK returns true if there are no errors.
func (e Errors) OK() bool {
	return len(e) == 0
}

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RuleFunc checks one value. It returns nil if the value passes.
type RuleFunc func(f schema.Field, v any) *ValidationError

// Registry manages rules and the rule chain of each field kind.
type Registry struct {
	mu     sync.RWMutex
	rules  map[string]RuleFunc
	chains map[schema.FieldType][]string
}

// NewRegistry creates a registry with the built-in rules and chains.
func NewRegistry() *Registry {
	r := &Registry{
		rules:  make(map[string]RuleFunc),
		chains: make(map[schema.FieldType][]string),
	}
	r.registerDefaults()
	return r
}

// Register adds or replaces a rule.
func (r *Registry) Register(name string, fn RuleFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[name] = fn
}

// Get retrieves a rule by name.
func (r *Registry) Get(name string) (RuleFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.rules[name]
	return fn, ok
}

// SetChain sets the ordered rule names applied to a field kind.
func (r *Registry) SetChain(t schema.FieldType, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[t] = append([]string(nil), names...)
}

// Chain returns the rule names applied to a field kind. Kinds without a
// chain of their own only get the required check.
func (r *Registry) Chain(t schema.FieldType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.chains[t]; ok {
		return c
	}
	return []string{RuleRequired}
}

// Field validates one value against its definition. Unknown rule names in
// a chain are skipped.
func (r *Registry) Field(f schema.Field, v any) *ValidationError {
	for _, name := range r.Chain(f.Type) {
		fn, ok := r.Get(name)
		if !ok {
			continue
		}
		if err := fn(f, v); err != nil {
			return err
		}
	}
	return nil
}

// All validates every field of s against values. A field absent from
// values is validated as nil. values is never modified.
func (r *Registry) All(s *schema.Schema, values map[string]any) Errors {
	errs := make(Errors)
	if s == nil {
		return errs
	}
	for _, f := range s.Fields {
		if err := r.Field(f, values[f.Name]); err != nil {
			errs[f.Name] = err.Message
		}
	}
	return errs
}

// Rule names.
const (
	RuleRequired             = "required"
	RuleNumber               = "number"
	RuleEmail                = "email"
	RuleURL                  = "url"
	RuleMultilingualRequired = "multilingual_required"
)

func (r *Registry) registerDefaults() {
	r.rules[RuleRequired] = validateRequired
	r.rules[RuleNumber] = validateNumber
	r.rules[RuleEmail] = validateEmail
	r.rules[RuleURL] = validateURL
	r.rules[RuleMultilingualRequired] = validateMultilingualRequired

	r.chains[schema.FieldNumber] = []string{RuleRequired, RuleNumber}
	r.chains[schema.FieldEmail] = []string{RuleRequired, RuleEmail}
	r.chains[schema.FieldURL] = []string{RuleRequired, RuleURL}
	r.chains[schema.FieldMultilingual] = []string{RuleRequired, RuleMultilingualRequired}
}

var defaultRegistry = NewRegistry()

// Default returns the shared default registry.
func Default() *Registry {
	return defaultRegistry
}

// Field validates one value with the default registry.
func Field(f schema.Field, v any) *ValidationError {
	return defaultRegistry.Field(f, v)
}

// All validates a value set with the default registry.
func All(s *schema.Schema, values map[string]any) Errors {
	return defaultRegistry.All(s, values)
}

// =============================================================================
// RULES
// =============================================================================

func fail(f schema.Field, v any, rule, format string) *ValidationError {
	return &ValidationError{
		Field:   f.Name,
		Value:   v,
		Rule:    rule,
		Message: fmt.Sprintf(format, f.DisplayLabel()),
	}
}

// validateRequired rejects nil, blank strings and empty collections on
// required fields. false and 0 are values.
func validateRequired(f schema.Field, v any) *ValidationError {
	if f.Required && value.IsBlank(v) {
		return fail(f, v, RuleRequired, "%s is required.")
	}
	return nil
}

func validateNumber(f schema.Field, v any) *ValidationError {
	if value.IsBlank(v) {
		return nil // Empty values are not invalid, use required for that
	}
	if _, ok := value.Number(v); !ok {
		return fail(f, v, RuleNumber, "%s must be a number.")
	}
	return nil
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateEmail(f schema.Field, v any) *ValidationError {
	if value.IsBlank(v) {
		return nil
	}
	if !emailRegex.MatchString(strings.TrimSpace(value.Text(v))) {
		return fail(f, v, RuleEmail, "%s must be a valid email.")
	}
	return nil
}

func validateURL(f schema.Field, v any) *ValidationError {
	if value.IsBlank(v) {
		return nil
	}
	s := strings.TrimSpace(value.Text(v))
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fail(f, v, RuleURL, "%s must be a valid URL.")
	}
	return nil
}

// validateMultilingualRequired requires primary-language text on required
// multilingual fields. The secondary language is never required on its own.
func validateMultilingualRequired(f schema.Field, v any) *ValidationError {
	if !f.Required {
		return nil
	}
	m, ok := value.MultilingualFrom(v)
	if !ok {
		// A bare string is primary-language text.
		s, _ := v.(string)
		m = value.Multilingual{Primary: s}
	}
	if !m.HasPrimary() {
		return fail(f, v, RuleMultilingualRequired, "%s is required in the primary language.")
	}
	return nil
}
