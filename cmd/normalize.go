package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shopworks/attrkit/multilingual"
	"github.com/shopworks/attrkit/wire"
)

var (
	normalizeInput  string
	normalizeOutput string
	normalizePretty bool
	normalizeStrict bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Convert a flat record into its bilingual wire form",
	Long: `Convert a flat, single-language record into the normalized record sent
to the backend: bilingual attributes become {primary, secondary} objects,
numeric attributes become numbers and the tag string becomes a list.

The input is a JSON object with "fields", optional "secondary" and
"customFields" members. Input defaults to stdin, output to stdout.

Examples:
  attrkit normalize -i flat.json --pretty
  attrkit normalize -i flat.json -o record.json --strict`,
	Args: cobra.NoArgs,
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeInput, "input", "i", "", "Input file (default: stdin)")
	normalizeCmd.Flags().StringVarP(&normalizeOutput, "output", "o", "", "Output file (default: stdout)")
	normalizeCmd.Flags().BoolVar(&normalizePretty, "pretty", false, "Indent the output")
	normalizeCmd.Flags().BoolVar(&normalizeStrict, "strict", false, "Fail when top-level attributes are invalid")
}

func runNormalize(cmd *cobra.Command, args []string) (err error) {
	input, inputName, err := openInput(normalizeInput)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := input.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing input file: %w", cerr)
		}
	}()

	var flat multilingual.FlatRecord
	if err := json.NewDecoder(input).Decode(&flat); err != nil {
		return fmt.Errorf("parsing %s: %w", inputName, err)
	}

	rec := multilingual.ToSubmission(flat)

	if msgs := multilingual.ValidateTopLevel(rec); len(msgs) > 0 {
		for _, msg := range msgs {
			fmt.Fprintf(os.Stderr, "✗ %s\n", msg)
		}
		if normalizeStrict {
			return fmt.Errorf("%d top-level attributes invalid", len(msgs))
		}
	}

	var opts []wire.Option
	if normalizePretty {
		opts = append(opts, wire.WithIndent("  "))
	}
	data, err := wire.Marshal(rec, opts...)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if normalizeOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(normalizeOutput, data, 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
