// Package cmd provides CLI commands for attrkit.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shopworks/attrkit/catalog"
	"github.com/shopworks/attrkit/config"
	"github.com/shopworks/attrkit/remote"
	"github.com/shopworks/attrkit/schema"
	"github.com/shopworks/attrkit/session"
	"github.com/shopworks/attrkit/store"
)

func setupLogger() {
	logLevel := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "INFO"
	}

	var level slog.Level
	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	logger := slog.New(handler)

	slog.SetDefault(logger)
}

var (
	configDir  string
	catalogDir string
	database   string
	apiURL     string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "attrkit",
	Short: "Edit product records with per-type custom fields",
	Long: `Attrkit manages product records whose custom fields depend on their
product type, with bilingual text for titles, descriptions and other
attributes.

Product types come from the built-in catalog, a local catalog directory or
the catalog backend. Records are kept in a local SQLite store unless a
backend URL is configured.

Examples:
  attrkit types list
  attrkit types show books
  attrkit validate books -i values.json
  attrkit normalize -i flat.json --pretty
  attrkit submit books -i flat.json
  attrkit records show 6f1c2a9e-...`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configDir != "" {
			config.SetConfigDir(configDir)
		}
		c, err := config.Load()
		if err != nil {
			return err
		}
		if catalogDir != "" {
			c.CatalogDir = catalogDir
		}
		if database != "" {
			c.Database = database
		}
		if apiURL != "" {
			c.API.BaseURL = apiURL
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	setupLogger()
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default: $HOME/.attrkit)")
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog-dir", "", "Directory of product type YAML files")
	rootCmd.PersistentFlags().StringVar(&database, "db", "", "Local record store path")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Catalog backend base URL")

	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(recordsCmd)
}

// loadCatalog returns the built-in product types merged with the configured
// catalog directory.
func loadCatalog() (*schema.Registry, error) {
	return catalog.Load(cfg.CatalogDir)
}

// groupRules returns the configured field group rules.
func groupRules() ([]schema.GroupRule, error) {
	if cfg.GroupRules == "" {
		return schema.DefaultGroupRules, nil
	}
	data, err := os.ReadFile(cfg.GroupRules)
	if err != nil {
		return nil, fmt.Errorf("reading group rules: %w", err)
	}
	return schema.LoadGroupRules(data)
}

// rawSource reads records in their wire form, before any decoding.
type rawSource interface {
	RawRecord(ctx context.Context, id string) (*structpb.Struct, error)
}

// backend bundles the collaborators of an editing session.
type backend struct {
	types   session.ProductTypeSource
	records session.RecordSource
	raw     rawSource
	sink    session.Sink
	close   func() error
}

// openBackend connects to the configured backend, or opens the local
// record store when none is configured. Product types fall back to the
// local catalog when the backend cannot serve them.
func openBackend(ctx context.Context) (*backend, error) {
	registry, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	if cfg.Remote() {
		client := remote.New(remote.Options{
			BaseURL: cfg.API.BaseURL,
			Token:   cfg.API.Token,
			Timeout: cfg.API.Timeout,
			Debug:   strings.EqualFold(os.Getenv("LOG_LEVEL"), "DEBUG"),
		})
		slog.Debug("using catalog backend", "url", cfg.API.BaseURL)
		return &backend{
			types:   catalog.NewFallback(client, registry),
			records: client,
			raw:     client,
			sink:    client,
			close:   func() error { return nil },
		}, nil
	}

	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	slog.Debug("using local record store", "path", path)
	return &backend{
		types:   registry,
		records: st,
		sink:    st,
		close:   st.Close,
	}, nil
}

// productTypeArg returns the product type named on the command line, or
// the configured default.
func productTypeArg(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.DefaultProductType != "" {
		return cfg.DefaultProductType, nil
	}
	return "", fmt.Errorf("no product type given and no default_product_type configured")
}

// openInput opens the named file, or stdin for an empty name.
func openInput(path string) (io.ReadCloser, string, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening input file: %w", err)
	}
	return f, path, nil
}
