package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/nrmlc/internal/pipeline"
	"github.com/ppiankov/nrmlc/internal/validate"
)

var allowPlaceholders bool

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <document.json|->",
	Short: "Check referential integrity of a rule document",
	Long: `Check verifies that every reference in the facts, outputs and includes
sections of a rule document points at a fact or item that exists in the
document. Input type paths are not checked.

Aggregation filters compare against a collection element placeholder
(#/facts/child); it is accepted unless --placeholders=false is given.

Example:
  nrmlc check rules.json
  nrmlc convert workspace.json | nrmlc check -`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&allowPlaceholders, "placeholders", true, "accept the collection element placeholder")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var placeholders []string
	if allowPlaceholders {
		placeholders = append(placeholders, pipeline.CollectionElementPath)
	}

	result, err := validate.NewValidator(placeholders...).ValidateJSON(data)
	if err != nil {
		return fmt.Errorf("check %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	if result.OK() {
		fmt.Fprintf(out, "✓ %s: %d references, all resolved\n", path, result.Refs)
		return nil
	}

	for _, d := range result.Dangling {
		fmt.Fprintf(out, "✗ %s: dangling %s\n", d.Location, d.Ref)
	}
	return fmt.Errorf("%s: %d of %d references dangling", path, len(result.Dangling), result.Refs)
}
