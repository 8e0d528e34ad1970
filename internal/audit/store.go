// internal/audit/store.go
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/dermassist/dermassist/internal/core/db"
	"github.com/dermassist/dermassist/internal/types"
)

/*
 * Durable audit trail storage.
 *
 * Store abstracts the persistence backend so the async writer and the
 * query surface are testable without a database. DBStore persists to the
 * rule_log table via named queries; timestamps are stored as RFC3339Nano
 * UTC text, which sorts lexicographically in time order across both
 * supported drivers.
 */

// Store persists and queries rule log entries. The exact query shape is
// owned here, not by the engine.
type Store interface {
	Insert(ctx context.Context, entry types.RuleLogEntry) error
	ByRequest(ctx context.Context, id types.RequestID) ([]types.RuleLogEntry, error)
	ByRule(ctx context.Context, ruleID string, limit int) ([]types.RuleLogEntry, error)
	Recent(ctx context.Context, limit int) ([]types.RuleLogEntry, error)
}

// DBStore persists rule log entries through the shared query layer.
type DBStore struct {
	queries *db.Queries
}

// NewDBStore wraps the query layer in a Store.
func NewDBStore(queries *db.Queries) *DBStore {
	return &DBStore{queries: queries}
}

// ruleLogRow mirrors the rule_log table for sqlx scanning.
type ruleLogRow struct {
	RequestID string `db:"request_id"`
	RuleID    string `db:"rule_id"`
	Applied   bool   `db:"applied"`
	Reason    string `db:"reason"`
	CreatedAt string `db:"created_at"`
}

// Insert appends one entry to the trail.
func (s *DBStore) Insert(ctx context.Context, entry types.RuleLogEntry) error {
	_, err := s.queries.ExecContext(ctx, "insert-rule-log",
		string(entry.RequestID),
		entry.RuleID,
		entry.Applied,
		entry.Reason,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert rule log: %w", err)
	}
	return nil
}

// ByRequest returns all entries of one evaluation in recording order.
func (s *DBStore) ByRequest(ctx context.Context, id types.RequestID) ([]types.RuleLogEntry, error) {
	var rows []ruleLogRow
	if err := s.queries.SelectContext(ctx, "rule-log-by-request", &rows, string(id)); err != nil {
		return nil, fmt.Errorf("query rule log by request: %w", err)
	}
	return toEntries(rows)
}

// ByRule returns the most recent entries for one rule, newest first.
func (s *DBStore) ByRule(ctx context.Context, ruleID string, limit int) ([]types.RuleLogEntry, error) {
	var rows []ruleLogRow
	if err := s.queries.SelectContext(ctx, "rule-log-by-rule", &rows, ruleID, limit); err != nil {
		return nil, fmt.Errorf("query rule log by rule: %w", err)
	}
	return toEntries(rows)
}

// Recent returns the most recent entries across all rules, newest first.
func (s *DBStore) Recent(ctx context.Context, limit int) ([]types.RuleLogEntry, error) {
	var rows []ruleLogRow
	if err := s.queries.SelectContext(ctx, "rule-log-recent", &rows, limit); err != nil {
		return nil, fmt.Errorf("query recent rule log: %w", err)
	}
	return toEntries(rows)
}

// Count returns the total number of trail entries.
func (s *DBStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.queries.GetContext(ctx, "rule-log-count", &count); err != nil {
		return 0, fmt.Errorf("count rule log: %w", err)
	}
	return count, nil
}

// toEntries converts scanned rows to domain entries, parsing timestamps.
func toEntries(rows []ruleLogRow) ([]types.RuleLogEntry, error) {
	entries := make([]types.RuleLogEntry, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse rule log timestamp %q: %w", row.CreatedAt, err)
		}
		entries = append(entries, types.RuleLogEntry{
			RequestID: types.RequestID(row.RequestID),
			RuleID:    row.RuleID,
			Applied:   row.Applied,
			Reason:    row.Reason,
			Timestamp: ts,
		})
	}
	return entries, nil
}
