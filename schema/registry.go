package schema

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrProductTypeNotFound is returned when a product type id is unknown.
var ErrProductTypeNotFound = errors.New("product type not found")

// ProductType is the summary of a product type together with its declared
// custom fields.
type ProductType struct {
	// ID is the stable identifier used by records
	ID string `yaml:"id" json:"id"`

	// Name is the display name in both languages
	Name Label `yaml:"name" json:"name"`

	// Description provides documentation
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// CustomFields are the declared extra attributes, in declaration order
	CustomFields []Field `yaml:"custom_fields,omitempty" json:"customFields,omitempty"`

	IsDigital        bool `yaml:"is_digital,omitempty" json:"isDigital"`
	RequiresShipping bool `yaml:"requires_shipping,omitempty" json:"requiresShipping"`
	TracksStock      bool `yaml:"tracks_stock,omitempty" json:"tracksStock"`
	HasVariants      bool `yaml:"has_variants,omitempty" json:"hasVariants"`
}

// Registry holds product type definitions keyed by id.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*ProductType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*ProductType),
	}
}

// Register adds or replaces a product type.
func (r *Registry) Register(pt *ProductType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[pt.ID] = pt
}

// Get retrieves a product type by id.
func (r *Registry) Get(id string) (*ProductType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pt, ok := r.types[id]
	return pt, ok
}

// ProductType implements the product type source contract over the
// registry contents.
func (r *Registry) ProductType(_ context.Context, id string) (*ProductType, error) {
	pt, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductTypeNotFound, id)
	}
	return pt, nil
}

// List returns all registered ids in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered product types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Merge combines another registry into this one.
// Product types from the other registry override existing ones.
func (r *Registry) Merge(other *Registry) {
	other.mu.RLock()
	defer other.mu.RUnlock()

	for _, pt := range other.types {
		r.Register(pt)
	}
}

// =============================================================================
// YAML LOADING
// =============================================================================

// CatalogConfig is the top-level YAML format of a product type file.
type CatalogConfig struct {
	Version      string        `yaml:"version"`
	ProductTypes []ProductType `yaml:"product_types"`
}

// LoadFromYAML loads product type definitions from YAML bytes. Every
// definition must build a valid Schema.
func (r *Registry) LoadFromYAML(data []byte) error {
	var config CatalogConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	for i := range config.ProductTypes {
		pt := &config.ProductTypes[i]
		if pt.ID == "" {
			return fmt.Errorf("product type %d: missing id", i)
		}
		if _, err := New(pt.ID, pt.CustomFields); err != nil {
			return fmt.Errorf("product type %s: %w", pt.ID, err)
		}
		r.Register(pt)
	}
	return nil
}

// LoadFromPath loads product types from a file or directory.
func (r *Registry) LoadFromPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !isYAMLFile(p) {
				return nil
			}
			return r.loadFile(p)
		})
	}

	return r.loadFile(path)
}

// LoadFS loads product types from every YAML file under dir in fsys.
func (r *Registry) LoadFS(fsys fs.FS, dir string) error {
	return fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isYAMLFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := r.LoadFromYAML(data); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		return nil
	})
}

func (r *Registry) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := r.LoadFromYAML(data); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func isYAMLFile(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}
