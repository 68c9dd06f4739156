package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetConfigDir(dir)
	t.Cleanup(func() { SetConfigDir("") })
	return dir
}

func TestLoad_Missing(t *testing.T) {
	withConfigDir(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Remote() {
		t.Error("empty config reports a backend")
	}
}

func TestSaveLoad(t *testing.T) {
	dir := withConfigDir(t)

	want := &Config{
		CatalogDir:         "/srv/catalog",
		Database:           "/var/lib/attrkit/records.db",
		DefaultProductType: "books",
		API: API{
			BaseURL: "https://catalog.example.com/api",
			Token:   "secret",
			Timeout: 15 * time.Second,
		},
	}
	if err := want.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config mode = %o, want 600", perm)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got != *want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
	if !got.Remote() {
		t.Error("Remote() = false with a base URL")
	}
}

func TestLoad_DurationString(t *testing.T) {
	dir := withConfigDir(t)
	data := "api:\n  base_url: http://localhost:8080\n  timeout: 2m30s\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.API.Timeout != 150*time.Second {
		t.Errorf("Timeout = %v", c.API.Timeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := withConfigDir(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("Load() error = nil for invalid YAML")
	}
}

func TestDatabasePath(t *testing.T) {
	dir := withConfigDir(t)

	c := &Config{}
	got, err := c.DatabasePath()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "records.db") {
		t.Errorf("DatabasePath() = %q", got)
	}

	c.Database = "/tmp/other.db"
	if got, _ := c.DatabasePath(); got != "/tmp/other.db" {
		t.Errorf("DatabasePath() = %q, want explicit path", got)
	}
}
