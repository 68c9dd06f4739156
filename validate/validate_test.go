package validate

import (
	"reflect"
	"testing"

	"github.com/shopworks/attrkit/schema"
	"github.com/shopworks/attrkit/value"
)

func TestField(t *testing.T) {
	tests := []struct {
		name    string
		field   schema.Field
		value   any
		wantMsg string
	}{
		{
			name:    "required empty string",
			field:   schema.Field{Name: "color", Label: schema.Label{Primary: "Color"}, Required: true},
			value:   "",
			wantMsg: "Color is required.",
		},
		{
			name:    "required whitespace",
			field:   schema.Field{Name: "color", Required: true},
			value:   "   ",
			wantMsg: "color is required.",
		},
		{
			name:  "required false boolean is a value",
			field: schema.Field{Name: "gift_wrap", Type: schema.FieldBoolean, Required: true},
			value: false,
		},
		{
			name:  "required zero number is a value",
			field: schema.Field{Name: "pages", Type: schema.FieldNumber, Required: true},
			value: 0.0,
		},
		{
			name:    "required nil",
			field:   schema.Field{Name: "pages", Type: schema.FieldNumber, Required: true},
			value:   nil,
			wantMsg: "pages is required.",
		},
		{
			name:    "number not numeric",
			field:   schema.Field{Name: "pages", Label: schema.Label{Primary: "Pages"}, Type: schema.FieldNumber},
			value:   "twelve",
			wantMsg: "Pages must be a number.",
		},
		{
			name:  "number numeric string",
			field: schema.Field{Name: "pages", Type: schema.FieldNumber},
			value: " 320 ",
		},
		{
			name:  "number empty optional",
			field: schema.Field{Name: "pages", Type: schema.FieldNumber},
			value: "",
		},
		{
			name:    "email invalid",
			field:   schema.Field{Name: "contact", Type: schema.FieldEmail},
			value:   "not-an-email",
			wantMsg: "contact must be a valid email.",
		},
		{
			name:  "email empty optional",
			field: schema.Field{Name: "contact", Type: schema.FieldEmail},
			value: "",
		},
		{
			name:  "email valid",
			field: schema.Field{Name: "contact", Type: schema.FieldEmail},
			value: "ops@example.com",
		},
		{
			name:    "email missing tld",
			field:   schema.Field{Name: "contact", Type: schema.FieldEmail},
			value:   "ops@example",
			wantMsg: "contact must be a valid email.",
		},
		{
			name:    "url without scheme",
			field:   schema.Field{Name: "manual", Label: schema.Label{Primary: "Manual"}, Type: schema.FieldURL},
			value:   "example.com/manual.pdf",
			wantMsg: "Manual must be a valid URL.",
		},
		{
			name:  "url https",
			field: schema.Field{Name: "manual", Type: schema.FieldURL},
			value: "https://example.com/manual.pdf",
		},
		{
			name:    "required url empty hits required first",
			field:   schema.Field{Name: "manual", Type: schema.FieldURL, Required: true},
			value:   "",
			wantMsg: "manual is required.",
		},
		{
			name:    "multilingual primary missing",
			field:   schema.Field{Name: "author", Type: schema.FieldMultilingual, Required: true},
			value:   value.Multilingual{Primary: "", Secondary: "X"},
			wantMsg: "author is required in the primary language.",
		},
		{
			name:    "multilingual map primary missing",
			field:   schema.Field{Name: "author", Type: schema.FieldMultilingual, Required: true},
			value:   map[string]any{"primary": " ", "secondary": "X"},
			wantMsg: "author is required in the primary language.",
		},
		{
			name:  "multilingual secondary missing is fine",
			field: schema.Field{Name: "author", Type: schema.FieldMultilingual, Required: true},
			value: value.Multilingual{Primary: "Le Guin"},
		},
		{
			name:  "multilingual optional empty",
			field: schema.Field{Name: "author", Type: schema.FieldMultilingual},
			value: value.Multilingual{},
		},
		{
			name:  "color has no format rule",
			field: schema.Field{Name: "shade", Type: schema.FieldColor},
			value: "not-a-color",
		},
		{
			name:  "phone has no format rule",
			field: schema.Field{Name: "hotline", Type: schema.FieldPhone},
			value: "call me",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Field(tt.field, tt.value)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("Field() = %q, want nil", err.Message)
				}
				return
			}
			if err == nil {
				t.Fatalf("Field() = nil, want %q", tt.wantMsg)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Field() = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Field != tt.field.Name {
				t.Errorf("Field = %q, want %q", err.Field, tt.field.Name)
			}
		})
	}
}

func TestField_Deterministic(t *testing.T) {
	f := schema.Field{Name: "contact", Type: schema.FieldEmail, Required: true}
	for _, v := range []any{"", "bad", "ok@example.org", nil} {
		first := Field(f, v)
		for i := 0; i < 5; i++ {
			again := Field(f, v)
			if !reflect.DeepEqual(first, again) {
				t.Fatalf("Field(%v) not deterministic: %v vs %v", v, first, again)
			}
		}
	}
}

func TestAll(t *testing.T) {
	s, err := schema.New("books", []schema.Field{
		{Name: "author", Type: schema.FieldMultilingual, Required: true},
		{Name: "pages", Type: schema.FieldNumber},
		{Name: "website", Type: schema.FieldURL},
		{Name: "binding", Type: schema.FieldSelect, Options: []string{"hardcover"}, Required: true},
	})
	if err != nil {
		t.Fatalf("schema.New() error = %v", err)
	}

	values := map[string]any{
		"author":  value.Multilingual{Secondary: "X"},
		"pages":   "many",
		"website": "https://example.com",
	}
	snapshot := map[string]any{
		"author":  value.Multilingual{Secondary: "X"},
		"pages":   "many",
		"website": "https://example.com",
	}

	errs := All(s, values)

	want := Errors{
		"author":  "author is required in the primary language.",
		"pages":   "pages must be a number.",
		"binding": "binding is required.",
	}
	if !reflect.DeepEqual(errs, want) {
		t.Errorf("All() = %v, want %v", errs, want)
	}
	if !reflect.DeepEqual(values, snapshot) {
		t.Error("All() modified the value set")
	}
	if errs.OK() {
		t.Error("expected failing result")
	}
	if got := errs.Fields(); !reflect.DeepEqual(got, []string{"author", "binding", "pages"}) {
		t.Errorf("Fields() = %v", got)
	}

	values["author"] = value.Bilingual("Le Guin")
	values["pages"] = "320"
	values["binding"] = "hardcover"
	if errs := All(s, values); !errs.OK() {
		t.Errorf("All() = %v, want valid", errs)
	}
}

func TestRegistry_CustomRule(t *testing.T) {
	r := NewRegistry()
	r.Register("hex", func(f schema.Field, v any) *ValidationError {
		s, _ := v.(string)
		if s != "" && s[0] != '#' {
			return &ValidationError{Field: f.Name, Value: v, Rule: "hex", Message: f.DisplayLabel() + " must start with #."}
		}
		return nil
	})
	r.SetChain(schema.FieldColor, RuleRequired, "hex", "missing-rule")

	f := schema.Field{Name: "shade", Type: schema.FieldColor}
	if err := r.Field(f, "red"); err == nil || err.Rule != "hex" {
		t.Errorf("Field() = %v, want hex failure", err)
	}
	if err := r.Field(f, "#ff0000"); err != nil {
		t.Errorf("Field() = %v, want nil", err)
	}
	if err := Field(f, "red"); err != nil {
		t.Errorf("default registry changed: %v", err)
	}

	if got := r.Chain(schema.FieldDate); !reflect.DeepEqual(got, []string{RuleRequired}) {
		t.Errorf("Chain(date) = %v", got)
	}
}
