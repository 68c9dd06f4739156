package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopworks/attrkit/multilingual"
	"github.com/shopworks/attrkit/schema"
	"github.com/shopworks/attrkit/value"
	"github.com/shopworks/attrkit/wire"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newTestServer(t *testing.T) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var submitted []map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("GET /product-types/books", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			writeJSON(w, http.StatusUnauthorized, `{"message": "missing token"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{
			"id": "books",
			"name": {"primary": "Books", "secondary": "Livres"},
			"customFields": [
				{"name": "author", "label": "Author", "type": "multilingual-text", "required": true},
				{"name": "pages", "type": "number", "displayOrder": 2}
			],
			"requiresShipping": true
		}`)
	})
	mux.HandleFunc("GET /product-types/broken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error": "database down"}`)
	})
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "r1" {
			writeJSON(w, http.StatusNotFound, `{"message": "no such record"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{
			"id": "r1",
			"productType": "books",
			"title": {"primary": "Dune", "secondary": "Dune"},
			"description": 12,
			"category": 3,
			"tags": ["sci-fi"],
			"customFieldsData": {"pages": 412}
		}`)
	})
	mux.HandleFunc("POST /products", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, `{"message": "bad json"}`)
			return
		}
		if title, _ := body["title"].(map[string]any); title["primary"] == "Taken" {
			writeJSON(w, http.StatusUnprocessableEntity, `{"message": "title already in use"}`)
			return
		}
		submitted = append(submitted, body)
		writeJSON(w, http.StatusCreated, `{"id": "new-1"}`)
	})
	mux.HandleFunc("PUT /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &submitted
}

func TestClient_ProductType(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(Options{BaseURL: srv.URL + "/", Token: "secret"})
	ctx := context.Background()

	pt, err := c.ProductType(ctx, "books")
	if err != nil {
		t.Fatalf("ProductType() error = %v", err)
	}
	if pt.Name.Secondary != "Livres" || !pt.RequiresShipping || len(pt.CustomFields) != 2 {
		t.Errorf("ProductType() = %+v", pt)
	}
	if f := pt.CustomFields[0]; f.Type != schema.FieldMultilingual || f.Label.Primary != "Author" {
		t.Errorf("first field = %+v", f)
	}

	if _, err := c.ProductType(ctx, "missing"); !errors.Is(err, schema.ErrProductTypeNotFound) {
		t.Errorf("ProductType(missing) error = %v, want ErrProductTypeNotFound", err)
	}

	_, err = c.ProductType(ctx, "broken")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError || apiErr.Message != "database down" {
		t.Errorf("ProductType(broken) error = %v", err)
	}

	_, err = New(Options{BaseURL: srv.URL}).ProductType(ctx, "books")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Errorf("ProductType() without token error = %v", err)
	}
}

func TestClient_Record(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(Options{BaseURL: srv.URL})
	ctx := context.Background()

	rec, err := c.Record(ctx, "r1")
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if rec.ProductType != "books" || rec.Title() != value.Bilingual("Dune") {
		t.Errorf("Record() = %+v", rec)
	}
	if _, ok := rec.Text["description"]; ok {
		t.Error("malformed description should be unset")
	}
	if c, ok := rec.Category(); !ok || c != 3 {
		t.Errorf("Category() = %d, %v", c, ok)
	}
	if rec.CustomFieldsData["pages"] != 412.0 {
		t.Errorf("pages = %#v", rec.CustomFieldsData["pages"])
	}

	if _, err := c.Record(ctx, "nope"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Record(nope) error = %v, want ErrRecordNotFound", err)
	}
}

func TestClient_RawRecord(t *testing.T) {
	srv, _ := newTestServer(t)
	c := New(Options{BaseURL: srv.URL})

	raw, err := c.RawRecord(context.Background(), "r1")
	if err != nil {
		t.Fatalf("RawRecord() error = %v", err)
	}
	problems := wire.Check(raw)
	if len(problems) != 1 || problems[0].Field != "description" || problems[0].Code != "not_bilingual" {
		t.Errorf("Check(RawRecord()) = %v, want description not_bilingual", problems)
	}

	if _, err := c.RawRecord(context.Background(), "nope"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("RawRecord(nope) error = %v", err)
	}
}

func TestClient_Submit(t *testing.T) {
	srv, submitted := newTestServer(t)
	c := New(Options{BaseURL: srv.URL})
	ctx := context.Background()

	rec := multilingual.ToSubmission(multilingual.FlatRecord{
		ProductType: "books",
		Fields:      map[string]any{"title": "Dune", "category": "3", "tags": "a, b"},
	})
	id, err := c.Submit(ctx, rec)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id != "new-1" {
		t.Errorf("Submit() = %q, want new-1", id)
	}
	if len(*submitted) != 1 {
		t.Fatalf("backend received %d records", len(*submitted))
	}
	body := (*submitted)[0]
	if body["category"] != 3.0 || body["productType"] != "books" {
		t.Errorf("wire body = %#v", body)
	}

	rec.ID = "r1"
	if id, err := c.Submit(ctx, rec); err != nil || id != "r1" {
		t.Errorf("Submit(update) = %q, %v", id, err)
	}

	taken := multilingual.ToSubmission(multilingual.FlatRecord{Fields: map[string]any{"title": "Taken"}})
	_, err = c.Submit(ctx, taken)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "title already in use" {
		t.Errorf("Submit(taken) error = %v", err)
	}
}
