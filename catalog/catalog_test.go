package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/shopworks/attrkit/schema"
)

func TestBuiltin(t *testing.T) {
	r, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}

	want := []string{"apparel", "books", "digital", "electronics", "gift-card"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}

	for _, id := range r.List() {
		pt, _ := r.Get(id)
		if _, err := schema.New(id, pt.CustomFields); err != nil {
			t.Errorf("%s: invalid fields: %v", id, err)
		}
	}

	books, _ := r.Get("books")
	s, err := schema.New("books", books.CustomFields)
	if err != nil {
		t.Fatal(err)
	}
	publishing := s.Groups().Get(schema.GroupPublishing)
	var names []string
	for _, f := range publishing {
		names = append(names, f.Name)
	}
	if !reflect.DeepEqual(names, []string{"author", "isbn", "publisher"}) {
		t.Errorf("publishing group = %v", names)
	}
	if isbn, _ := s.Field("isbn"); isbn.Label.Primary != "ISBN" {
		t.Errorf("scalar label = %+v", isbn.Label)
	}

	digital, _ := r.Get("digital")
	if !digital.IsDigital || digital.RequiresShipping {
		t.Errorf("digital flags = %+v", digital)
	}
}

func TestLoad_LocalOverrides(t *testing.T) {
	dir := t.TempDir()
	local := `version: "1"
product_types:
  - id: books
    name: Books (local)
    custom_fields:
      - name: author
        type: text
  - id: furniture
    name: Furniture
`
	if err := os.WriteFile(filepath.Join(dir, "local.yaml"), []byte(local), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	books, _ := r.Get("books")
	if books.Name.Primary != "Books (local)" || len(books.CustomFields) != 1 {
		t.Errorf("books = %+v, want local definition", books)
	}
	if _, ok := r.Get("furniture"); !ok {
		t.Error("local product type not loaded")
	}
	if _, ok := r.Get("apparel"); !ok {
		t.Error("built-in product type lost")
	}

	if _, err := Load(filepath.Join(dir, "missing")); err == nil {
		t.Error("Load(missing dir) error = nil")
	}
}

type stubSource struct {
	pt  *schema.ProductType
	err error
}

func (s *stubSource) ProductType(_ context.Context, _ string) (*schema.ProductType, error) {
	return s.pt, s.err
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	fresh := &schema.ProductType{ID: "books", Name: schema.Label{Primary: "Books v2"}}
	src := &stubSource{pt: fresh}
	fb := NewFallback(src, nil)

	got, err := fb.ProductType(ctx, "books")
	if err != nil || got != fresh {
		t.Fatalf("ProductType() = %v, %v", got, err)
	}
	if _, ok := fb.Cache().Get("books"); !ok {
		t.Error("successful response not cached")
	}

	src.pt, src.err = nil, errors.New("timeout")
	got, err = fb.ProductType(ctx, "books")
	if err != nil || got != fresh {
		t.Errorf("ProductType() after failure = %v, %v; want cached", got, err)
	}

	_, err = fb.ProductType(ctx, "apparel")
	if err == nil {
		t.Error("ProductType(uncached) error = nil")
	}
}

func TestFallback_SeededCache(t *testing.T) {
	cache, err := Builtin()
	if err != nil {
		t.Fatal(err)
	}
	fb := NewFallback(&stubSource{err: errors.New("offline")}, cache)

	pt, err := fb.ProductType(context.Background(), "apparel")
	if err != nil || pt.ID != "apparel" {
		t.Errorf("ProductType() = %v, %v", pt, err)
	}

	_, err = NewFallback(&stubSource{}, nil).ProductType(context.Background(), "x")
	if !errors.Is(err, schema.ErrProductTypeNotFound) {
		t.Errorf("nil answer error = %v, want ErrProductTypeNotFound", err)
	}
}
