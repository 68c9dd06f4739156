package wire

import (
	"reflect"
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shopworks/attrkit/multilingual"
	"github.com/shopworks/attrkit/value"
)

func sampleRecord() multilingual.NormalizedRecord {
	return multilingual.ToSubmission(multilingual.FlatRecord{
		ID:          "r1",
		ProductType: "books",
		Fields: map[string]any{
			"title":    "Dune",
			"category": "3",
			"price":    "12.5",
			"tags":     "sci-fi, classic",
		},
		CustomFields: map[string]any{
			"author": value.Multilingual{Primary: "Frank Herbert"},
			"pages":  412.0,
		},
	})
}

func TestMarshalUnmarshal(t *testing.T) {
	rec := sampleRecord()

	data, err := Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	back, issues, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}

	if back.ID != "r1" || back.ProductType != "books" {
		t.Errorf("identity = %q/%q", back.ID, back.ProductType)
	}
	if back.Title() != value.Bilingual("Dune") {
		t.Errorf("title = %+v", back.Title())
	}
	if c, ok := back.Category(); !ok || c != 3 {
		t.Errorf("Category() = %d, %v", c, ok)
	}
	if back.Attributes["price"] != 12.5 {
		t.Errorf("price = %#v", back.Attributes["price"])
	}
	if !reflect.DeepEqual(back.Tags, []string{"sci-fi", "classic"}) {
		t.Errorf("tags = %v", back.Tags)
	}
	wantAuthor := map[string]any{"primary": "Frank Herbert", "secondary": "Frank Herbert"}
	if !reflect.DeepEqual(back.CustomFieldsData["author"], wantAuthor) {
		t.Errorf("author = %#v", back.CustomFieldsData["author"])
	}
}

func TestMarshal_Indent(t *testing.T) {
	data, err := Marshal(sampleRecord(), WithIndent("  "))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Errorf("expected indented output, got %s", data)
	}
}

func TestUnmarshal_Invalid(t *testing.T) {
	if _, _, err := Unmarshal([]byte(`[1, 2]`)); err == nil {
		t.Error("Unmarshal(array) error = nil")
	}
	if _, _, err := Unmarshal([]byte(`{`)); err == nil {
		t.Error("Unmarshal(truncated) error = nil")
	}

	rec, issues, err := Unmarshal([]byte(`{"title": 5, "subtitle": {"primary": "a", "secondary": "b"}}`))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(issues) != 1 || issues[0].Field != "title" {
		t.Errorf("issues = %v", issues)
	}
	if rec.Text["subtitle"].Secondary != "b" {
		t.Errorf("subtitle = %+v", rec.Text["subtitle"])
	}
}

func TestParseCheck_Malformed(t *testing.T) {
	s, err := Parse([]byte(`{"title": 42, "tags": "a,b", "category": "x", "stock": null, "customFieldsData": {}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var got []string
	for _, p := range Check(s) {
		got = append(got, p.Field+":"+p.Code)
	}
	want := []string{"category:not_number", "tags:not_string_list", "title:not_bilingual"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Check(Parse()) = %v, want %v", got, want)
	}

	if _, err := Parse([]byte(`"text"`)); err == nil {
		t.Error("Parse(string) error = nil")
	}
}

func TestCheck(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"title":    map[string]any{"primary": "Dune", "secondary": "Dune"},
		"subtitle": "plain",
		"category": "3",
		"tags":     []any{"a", 1.0},
		"customFieldsData": map[string]any{
			"pages":        412.0,
			"Release Date": "2024",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, p := range Check(s) {
		got = append(got, p.Field+":"+p.Code)
	}
	want := []string{
		"category:not_number",
		"customFieldsData.Release Date:invalid_key",
		"subtitle:not_bilingual",
		"tags:not_string_list",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Check() = %v, want %v", got, want)
	}

	clean, err := ToStruct(sampleRecord())
	if err != nil {
		t.Fatal(err)
	}
	if problems := Check(clean); len(problems) != 0 {
		t.Errorf("Check(ToStruct()) = %v", problems)
	}
}

func TestInconsistentCustomTypes(t *testing.T) {
	a, _ := structpb.NewStruct(map[string]any{
		"customFieldsData": map[string]any{"warranty": "1y", "pages": 10.0},
	})
	b, _ := structpb.NewStruct(map[string]any{
		"customFieldsData": map[string]any{
			"warranty": map[string]any{"primary": "1y", "secondary": "1y"},
			"pages":    20.0,
		},
	})
	c, _ := structpb.NewStruct(map[string]any{"title": "no custom data"})

	got := InconsistentCustomTypes([]*structpb.Struct{a, b, c})
	want := map[string][]string{"warranty": {"object", "string"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("InconsistentCustomTypes() = %v, want %v", got, want)
	}
}
