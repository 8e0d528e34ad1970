package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dermassist/dermassist/internal/rules"
	"github.com/dermassist/dermassist/internal/types"
)

var validateRulesPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a rule file without evaluating anything",
	Long: `Runs the loader against the rule file and reports either the rule count
or the specific validation failure, so a rule author can fix the source
before triggering a live reload.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateRulesPath, "rules", "", "rule source file (YAML)")
	validateCmd.MarkFlagRequired("rules")
}

func runValidate(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(validateRulesPath)
	if err != nil {
		return fmt.Errorf("failed to read rule source: %w", err)
	}

	set, err := rules.Load(source)
	if err != nil {
		if le, ok := types.AsLoadError(err); ok {
			return fmt.Errorf("validation failed: %s", le.Error())
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rules valid\n", validateRulesPath, set.Len())
	return nil
}
