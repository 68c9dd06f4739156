package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shopworks/attrkit/schema"
	"github.com/shopworks/attrkit/validate"
)

var (
	validateInput   string
	validateVerbose bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [product-type]",
	Short: "Validate custom field values against a product type",
	Long: `Validate a JSON object of custom field values against the schema of a
product type, without storing anything.

Keys the product type does not declare are reported but not validated.
Input defaults to stdin.

Examples:
  attrkit validate books -i values.json
  echo '{"author": {"primary": "", "secondary": "X"}}' | attrkit validate books`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "", "Input file (default: stdin)")
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "List every field checked")
}

func runValidate(cmd *cobra.Command, args []string) (err error) {
	id, err := productTypeArg(args)
	if err != nil {
		return err
	}

	input, inputName, err := openInput(validateInput)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := input.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing input file: %w", cerr)
		}
	}()

	var values map[string]any
	if err := json.NewDecoder(input).Decode(&values); err != nil {
		return fmt.Errorf("parsing %s: %w", inputName, err)
	}

	registry, err := loadCatalog()
	if err != nil {
		return err
	}
	pt, err := registry.ProductType(cmd.Context(), id)
	if err != nil {
		return err
	}

	s, drift, err := schema.Assemble(pt, values)
	if err != nil {
		return fmt.Errorf("product type %s: %w", id, err)
	}
	for _, d := range drift {
		slog.Warn("value for undeclared field", "product_type", id, "field", d.Field)
	}

	errs := validate.All(s, values)

	if validateVerbose {
		if required := s.RequiredFields(); len(required) > 0 {
			fmt.Printf("Required: %s\n", strings.Join(required, ", "))
		}
		for _, f := range s.Fields {
			status := "ok"
			if msg, failed := errs[f.Name]; failed {
				status = msg
			}
			fmt.Printf("  %-24s %-18s %s\n", f.Name, f.Type, status)
		}
	}

	if !errs.OK() {
		for _, name := range errs.Fields() {
			fmt.Printf("✗ %s: %s\n", name, errs[name])
		}
		return fmt.Errorf("%d of %d fields invalid", len(errs), s.Len())
	}

	fmt.Printf("✓ Valid: %d fields of %s checked from %s\n", s.Len(), id, inputName)
	return nil
}
