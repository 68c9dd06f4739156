package cmd

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shopworks/attrkit/multilingual"
	"github.com/shopworks/attrkit/store"
	"github.com/shopworks/attrkit/wire"
)

var (
	recordsFlat bool
	recordsType string
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect stored records",
	Long: `Show, list, check and delete product records.

show and check read from the configured backend. list and delete work on
the local record store only.`,
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a record in its wire form, or flattened for editing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := b.close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing record store: %w", cerr)
			}
		}()

		rec, err := b.records.Record(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if recordsFlat {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(multilingual.ToEditable(rec))
		}
		data, err := wire.Marshal(rec, wire.WithIndent("  "))
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var recordsCheckCmd = &cobra.Command{
	Use:   "check <id>...",
	Short: "Report shape problems in stored records",
	Long: `Check that the bilingual attributes, numbers, tags and custom fields of
records have the shape the backend expects, and report custom fields whose
value type differs between the records checked.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := b.close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing record store: %w", cerr)
			}
		}()

		var (
			structs  []*structpb.Struct
			problems int
		)
		for _, id := range args {
			s, err := b.raw.RawRecord(cmd.Context(), id)
			if err != nil {
				return err
			}
			structs = append(structs, s)
			for _, p := range wire.Check(s) {
				fmt.Printf("✗ %s %s: %s\n", id, p.Field, p.Message)
				problems++
			}
		}

		mixed := wire.InconsistentCustomTypes(structs)
		for _, key := range slices.Sorted(maps.Keys(mixed)) {
			fmt.Printf("✗ custom field %s has mixed types: %s\n", key, strings.Join(mixed[key], ", "))
			problems++
		}

		if problems > 0 {
			return fmt.Errorf("%d problems in %d records", problems, len(args))
		}
		fmt.Printf("✓ %d records checked\n", len(args))
		return nil
	},
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records in the local store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := st.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing record store: %w", cerr)
			}
		}()

		sums, err := st.List(cmd.Context(), recordsType)
		if err != nil {
			return err
		}
		if len(sums) == 0 {
			fmt.Println("No records found")
			return nil
		}
		for _, sum := range sums {
			fmt.Printf("  %-36s %-14s %s\n", sum.ID, sum.ProductType, sum.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a record from the local store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := st.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing record store: %w", cerr)
			}
		}()

		if err := st.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted %s\n", args[0])
		return nil
	},
}

// openStore opens the local record store, refusing when a backend is
// configured.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	if cfg.Remote() {
		return nil, fmt.Errorf("%s works on the local store only; a backend is configured", cmd.CommandPath())
	}
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return store.Open(cmd.Context(), path)
}

func init() {
	recordsShowCmd.Flags().BoolVar(&recordsFlat, "flat", false, "Print the flattened editing form")
	recordsListCmd.Flags().StringVarP(&recordsType, "type", "t", "", "Only list records of this product type")

	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsCheckCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
}
