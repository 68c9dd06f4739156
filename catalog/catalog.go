// Package catalog provides the built-in product types and a product type
// source that falls back to a local cache when the authoritative source
// fails.
package catalog

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/shopworks/attrkit/schema"
)

//go:embed types/*.yaml
var embeddedTypes embed.FS

// Builtin returns a registry holding the built-in product types.
func Builtin() (*schema.Registry, error) {
	r := schema.NewRegistry()
	if err := r.LoadFS(embeddedTypes, "types"); err != nil {
		return nil, fmt.Errorf("loading built-in product types: %w", err)
	}
	return r, nil
}

// Load returns the built-in product types merged with the definitions found
// under dir. Definitions from dir replace built-in ones with the same id.
// An empty dir loads the built-in types only.
func Load(dir string) (*schema.Registry, error) {
	r, err := Builtin()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return r, nil
	}

	local := schema.NewRegistry()
	if err := local.LoadFromPath(dir); err != nil {
		return nil, fmt.Errorf("loading product types from %s: %w", dir, err)
	}
	r.Merge(local)
	slog.Debug("loaded product types", "dir", dir, "local", local.Len(), "total", r.Len())
	return r, nil
}

// Source provides product type definitions.
type Source interface {
	ProductType(ctx context.Context, id string) (*schema.ProductType, error)
}

// Fallback reads product types from a primary source and keeps every
// successful answer in a cache. When the primary source fails, the cached
// definition is returned instead.
type Fallback struct {
	primary Source
	cache   *schema.Registry
}

// NewFallback wraps primary with cache. A nil cache starts empty.
func NewFallback(primary Source, cache *schema.Registry) *Fallback {
	if cache == nil {
		cache = schema.NewRegistry()
	}
	return &Fallback{primary: primary, cache: cache}
}

// ProductType implements Source.
func (f *Fallback) ProductType(ctx context.Context, id string) (*schema.ProductType, error) {
	pt, err := f.primary.ProductType(ctx, id)
	if err == nil && pt != nil {
		f.cache.Register(pt)
		return pt, nil
	}
	if err == nil {
		err = schema.ErrProductTypeNotFound
	}

	if cached, ok := f.cache.Get(id); ok {
		slog.Warn("product type source failed, using cached definition",
			"product_type", id, "err", err)
		return cached, nil
	}
	return nil, fmt.Errorf("product type %q: %w", id, err)
}

// Cache returns the registry backing the fallback.
func (f *Fallback) Cache() *schema.Registry {
	return f.cache
}
