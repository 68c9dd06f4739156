package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shopworks/attrkit/multilingual"
	"github.com/shopworks/attrkit/session"
)

var (
	submitInput  string
	submitRecord string
)

var submitCmd = &cobra.Command{
	Use:   "submit [product-type]",
	Short: "Validate a flat record and store it",
	Long: `Validate a flat record against its product type and store it in the
local record store, or send it to the catalog backend when one is configured.

With --record the stored record is loaded first and the input is applied
on top of it, so only changed fields need to be given. The product type
then defaults to the record's own.

Examples:
  attrkit submit books -i flat.json
  attrkit submit --record 6f1c2a9e-... -i changes.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitInput, "input", "i", "", "Input file (default: stdin)")
	submitCmd.Flags().StringVar(&submitRecord, "record", "", "Update the record with this id")
}

func runSubmit(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	input, inputName, err := openInput(submitInput)
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

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing record store: %w", cerr)
		}
	}()

	rules, err := groupRules()
	if err != nil {
		return err
	}
	sess := session.New(b.types,
		session.WithRecords(b.records),
		session.WithSink(b.sink),
		session.WithGroupRules(rules))

	var schemaErr *session.SchemaError
	if submitRecord != "" {
		typeID := ""
		if len(args) > 0 {
			typeID = args[0]
		}
		err = sess.Open(ctx, typeID, submitRecord)
	} else {
		typeID := flat.ProductType
		if len(args) > 0 || typeID == "" {
			if typeID, err = productTypeArg(args); err != nil {
				return err
			}
		}
		err = sess.Select(ctx, typeID)
	}
	if errors.As(err, &schemaErr) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", schemaErr)
		err = nil
	}
	if err != nil {
		return err
	}
	for _, d := range sess.Drift() {
		fmt.Fprintf(os.Stderr, "warning: field %q is not declared by %s\n", d.Field, sess.ProductType())
	}

	if err := applyFlat(sess, flat); err != nil {
		return err
	}

	res, err := sess.Submit(ctx)
	var failure *session.ValidationFailure
	if errors.As(err, &failure) {
		for _, msg := range failure.TopLevel {
			fmt.Printf("✗ %s\n", msg)
		}
		for _, g := range sess.Groups() {
			for _, f := range g.Fields {
				if msg, failed := failure.Fields[f.Name]; failed {
					fmt.Printf("✗ [%s] %s: %s\n", g.Name, f.Name, msg)
				}
			}
		}
		return fmt.Errorf("record not stored: %d problems", len(failure.TopLevel)+len(failure.Fields))
	}
	if err != nil {
		return err
	}

	filled, total := sess.Completion()
	fmt.Printf("✓ Stored %s (%s, %d/%d custom fields filled)\n", res.ID, sess.ProductType(), filled, total)
	return nil
}

// applyFlat copies the values of flat into the session.
func applyFlat(sess *session.Session, flat multilingual.FlatRecord) error {
	for name, v := range flat.Fields {
		if err := sess.SetField(name, v); err != nil {
			return err
		}
	}
	for name, text := range flat.Secondary {
		if err := sess.SetSecondary(name, text); err != nil {
			return err
		}
	}
	for name, v := range flat.CustomFields {
		if err := sess.SetValue(name, v); err != nil {
			return err
		}
	}
	return nil
}
