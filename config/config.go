// Package config manages the attrkit configuration stored in
// ~/.attrkit/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds user settings. Command-line flags override them.
type Config struct {
	// CatalogDir is a directory of product type YAML files loaded on top of
	// the built-in catalog
	CatalogDir string `yaml:"catalog_dir,omitempty" json:"catalog_dir,omitempty"`

	// Database is the path of the local record store
	Database string `yaml:"database,omitempty" json:"database,omitempty"`

	// GroupRules is a YAML file replacing the default field group rules
	GroupRules string `yaml:"group_rules,omitempty" json:"group_rules,omitempty"`

	// DefaultProductType is used when a command is given no product type
	DefaultProductType string `yaml:"default_product_type,omitempty" json:"default_product_type,omitempty"`

	// API configures the catalog backend; without a base URL records are
	// kept in the local store
	API API `yaml:"api,omitempty" json:"api,omitempty"`
}

// API holds the backend connection settings.
type API struct {
	BaseURL string        `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Token   string        `yaml:"token,omitempty" json:"token,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Remote reports whether a backend is configured.
func (c *Config) Remote() bool {
	return c.API.BaseURL != ""
}

// DatabasePath returns the record store path, defaulting to records.db in
// the configuration directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Database != "" {
		return c.Database, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "records.db"), nil
}

// configDirOverride holds a user-specified configuration directory.
// When empty, the default $HOME/.attrkit is used.
var configDirOverride string

// SetConfigDir overrides the default configuration directory.
func SetConfigDir(dir string) {
	configDirOverride = dir
}

// ConfigDir returns the attrkit configuration directory.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".attrkit"), nil
}

// Path returns the path of the configuration file.
func Path() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration file. A missing file yields an empty
// configuration.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the configuration file, creating its directory if needed.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path, err := Path()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// The file may hold an API token.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
