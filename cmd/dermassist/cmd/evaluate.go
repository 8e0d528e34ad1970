package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dermassist/dermassist/internal/audit"
	"github.com/dermassist/dermassist/internal/core/config"
	"github.com/dermassist/dermassist/internal/core/db"
	"github.com/dermassist/dermassist/internal/rules"
	"github.com/dermassist/dermassist/internal/types"
)

var (
	evaluateRulesPath string
	evaluateInputPath string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one analysis/profile input against a rule file",
	Long: `Loads the rule file, evaluates the JSON input document, and prints the
recommendation bundle to stdout. With --db-url the per-rule audit trail is
persisted; without it the trail is discarded.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateRulesPath, "rules", "", "rule source file (YAML)")
	evaluateCmd.Flags().StringVar(&evaluateInputPath, "input", "-", "input JSON file, or - for stdin")
}

// evalInput is the JSON document the evaluate command consumes: the
// classifier output and the user profile side by side.
type evalInput struct {
	Analysis types.AnalysisInput `json:"analysis"`
	Profile  types.ProfileInput  `json:"profile"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if evaluateRulesPath != "" {
		cfg.RulesPath = evaluateRulesPath
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	source, err := os.ReadFile(cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("failed to read rule source: %w", err)
	}
	set, err := rules.Load(source)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	var recorder audit.Recorder = audit.NopRecorder{}
	if cfg.DatabaseURL != "" {
		database, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		// Fresh databases have no schema yet; audit writes would all fail.
		if err := db.MigrateUp(database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		queries, err := db.LoadQueries(database)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}

		auditLogger := audit.NewLogger(audit.NewDBStore(queries), cfg.AuditBufferSize, cfg.AuditFlushTimeout, logger)
		defer auditLogger.Close()
		recorder = auditLogger
	}

	input, err := readEvalInput(evaluateInputPath)
	if err != nil {
		return err
	}

	engine := rules.NewEngine(set, recorder, logger)
	output := engine.Evaluate(&input.Analysis, &input.Profile)

	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}

// readEvalInput decodes the input document from a file or stdin.
func readEvalInput(path string) (*evalInput, error) {
	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var input evalInput
	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}
	return &input, nil
}
