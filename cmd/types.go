package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shopworks/attrkit/schema"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Inspect product types",
	Long:  `List product types and show their custom fields and field groups.`,
}

var typesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available product types",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadCatalog()
		if err != nil {
			return err
		}

		ids := registry.List()
		if len(ids) == 0 {
			fmt.Println("No product types found")
			return nil
		}

		fmt.Println("Available product types:")
		for _, id := range ids {
			pt, _ := registry.Get(id)
			flags := ""
			if pt.IsDigital {
				flags = " [digital]"
			}
			fmt.Printf("  %-14s %-24s %2d fields%s\n", id, pt.Name.Primary, len(pt.CustomFields), flags)
		}
		return nil
	},
}

// typeView is the YAML shape printed by types show.
type typeView struct {
	ID               string         `yaml:"id"`
	Name             schema.Label   `yaml:"name"`
	Description      string         `yaml:"description,omitempty"`
	IsDigital        bool           `yaml:"is_digital"`
	RequiresShipping bool           `yaml:"requires_shipping"`
	TracksStock      bool           `yaml:"tracks_stock"`
	HasVariants      bool           `yaml:"has_variants"`
	Fields           []schema.Field `yaml:"fields,omitempty"`
	Groups           []groupView    `yaml:"groups,omitempty"`
}

type groupView struct {
	Name   schema.GroupName `yaml:"name"`
	Fields []string         `yaml:"fields"`
}

var typesShowCmd = &cobra.Command{
	Use:   "show [product-type]",
	Short: "Show a product type with its schema and field groups",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := productTypeArg(args)
		if err != nil {
			return err
		}

		registry, err := loadCatalog()
		if err != nil {
			return err
		}
		pt, err := registry.ProductType(cmd.Context(), id)
		if err != nil {
			return err
		}

		s, _, err := schema.Assemble(pt, nil)
		if err != nil {
			return fmt.Errorf("product type %s: %w", id, err)
		}
		rules, err := groupRules()
		if err != nil {
			return err
		}

		view := typeView{
			ID:               pt.ID,
			Name:             pt.Name,
			Description:      pt.Description,
			IsDigital:        pt.IsDigital,
			RequiresShipping: pt.RequiresShipping,
			TracksStock:      pt.TracksStock,
			HasVariants:      pt.HasVariants,
			Fields:           s.Fields,
		}
		for _, g := range schema.ClassifyWith(rules, s.Fields) {
			gv := groupView{Name: g.Name}
			for _, f := range g.Fields {
				gv.Fields = append(gv.Fields, f.Name)
			}
			view.Groups = append(view.Groups, gv)
		}

		out, err := yaml.Marshal(view)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	typesCmd.AddCommand(typesListCmd)
	typesCmd.AddCommand(typesShowCmd)
}
