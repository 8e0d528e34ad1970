package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dermassist/dermassist/internal/audit"
	"github.com/dermassist/dermassist/internal/core/db"
	"github.com/dermassist/dermassist/internal/types"
)

var (
	auditRequestID string
	auditRuleID    string
	auditLimit     int
	auditCount     bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the rule evaluation audit trail",
	Long: `Prints rule log entries as JSON lines. Filter by --request-id to see
every decision of one evaluation, by --rule-id to see one rule's recent
history, or neither for the most recent entries overall.`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringVar(&auditRequestID, "request-id", "", "show all entries for one request")
	auditCmd.Flags().StringVar(&auditRuleID, "rule-id", "", "show recent entries for one rule")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum entries to return")
	auditCmd.Flags().BoolVar(&auditCount, "count", false, "print the total entry count instead of entries")
}

func runAudit(cmd *cobra.Command, args []string) error {
	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}
	if auditRequestID != "" && auditRuleID != "" {
		return fmt.Errorf("--request-id and --rule-id are mutually exclusive")
	}

	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}
	store := audit.NewDBStore(queries)

	ctx := context.Background()

	if auditCount {
		count, err := store.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), count)
		return nil
	}

	var entries []types.RuleLogEntry
	switch {
	case auditRequestID != "":
		requestID, err := types.ParseRequestID(auditRequestID)
		if err != nil {
			return fmt.Errorf("invalid request id: %w", err)
		}
		entries, err = store.ByRequest(ctx, requestID)
		if err != nil {
			return err
		}
	case auditRuleID != "":
		entries, err = store.ByRule(ctx, auditRuleID, auditLimit)
		if err != nil {
			return err
		}
	default:
		entries, err = store.Recent(ctx, auditLimit)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}
