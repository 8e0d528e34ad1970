// internal/audit/store_test.go
package audit

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/dermassist/dermassist/internal/core/db"
	"github.com/dermassist/dermassist/internal/types"
)

func newTestStore(t *testing.T) *DBStore {
	t.Helper()

	database, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.MigrateUp(database); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		t.Fatalf("failed to load queries: %v", err)
	}
	return NewDBStore(queries)
}

func insertEntries(t *testing.T, store *DBStore, entries ...types.RuleLogEntry) {
	t.Helper()
	for _, e := range entries {
		if err := store.Insert(context.Background(), e); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
}

func TestDBStore_ByRequestInRecordingOrder(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	insertEntries(t, store,
		types.RuleLogEntry{RequestID: "req-1", RuleID: "r1", Applied: true, Reason: "applied", Timestamp: base},
		types.RuleLogEntry{RequestID: "req-1", RuleID: "r2", Applied: false, Reason: "no-match:skin_type", Timestamp: base.Add(time.Millisecond)},
		types.RuleLogEntry{RequestID: "req-2", RuleID: "r1", Applied: true, Reason: "applied", Timestamp: base.Add(time.Second)},
	)

	got, err := store.ByRequest(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("ByRequest() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(got))
	}
	if got[0].RuleID != "r1" || got[1].RuleID != "r2" {
		t.Errorf("order = [%s %s], want [r1 r2]", got[0].RuleID, got[1].RuleID)
	}
	if got[1].Reason != "no-match:skin_type" {
		t.Errorf("reason = %q, want no-match:skin_type", got[1].Reason)
	}
	if !got[0].Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want %v round-tripped", got[0].Timestamp, base)
	}
}

func TestDBStore_ByRuleNewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	insertEntries(t, store,
		types.RuleLogEntry{RequestID: "req-1", RuleID: "r1", Applied: true, Reason: "applied", Timestamp: base},
		types.RuleLogEntry{RequestID: "req-2", RuleID: "r1", Applied: false, Reason: "no-match:age", Timestamp: base.Add(time.Minute)},
		types.RuleLogEntry{RequestID: "req-3", RuleID: "r1", Applied: true, Reason: "applied", Timestamp: base.Add(2 * time.Minute)},
		types.RuleLogEntry{RequestID: "req-4", RuleID: "r2", Applied: true, Reason: "applied", Timestamp: base.Add(3 * time.Minute)},
	)

	got, err := store.ByRule(context.Background(), "r1", 2)
	if err != nil {
		t.Fatalf("ByRule() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(entries) = %d, want limit 2", len(got))
	}
	if got[0].RequestID != "req-3" || got[1].RequestID != "req-2" {
		t.Errorf("order = [%s %s], want [req-3 req-2] newest first", got[0].RequestID, got[1].RequestID)
	}
}

func TestDBStore_Recent(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	insertEntries(t, store,
		types.RuleLogEntry{RequestID: "req-1", RuleID: "r1", Applied: true, Reason: "applied", Timestamp: base},
		types.RuleLogEntry{RequestID: "req-2", RuleID: "r2", Applied: false, Reason: "contraindication:pregnancy", Timestamp: base.Add(time.Minute)},
	)

	got, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(got))
	}
	if got[0].RequestID != "req-2" {
		t.Errorf("first entry = %s, want req-2 (newest first)", got[0].RequestID)
	}
	if got[0].Reason != "contraindication:pregnancy" {
		t.Errorf("reason = %q, want contraindication:pregnancy", got[0].Reason)
	}
}

func TestDBStore_Count(t *testing.T) {
	store := newTestStore(t)

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}

	insertEntries(t, store,
		types.RuleLogEntry{RequestID: "req-1", RuleID: "r1", Applied: true, Reason: "applied", Timestamp: time.Now().UTC()},
	)

	count, err = store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestDBStore_EndToEndThroughLogger(t *testing.T) {
	store := newTestStore(t)
	logger := NewLogger(store, 16, time.Second, zerolog.Nop())

	logger.Record(types.RuleLogEntry{RequestID: "req-1", RuleID: "r1", Applied: true, Reason: "applied", Timestamp: time.Now().UTC()})
	logger.Record(types.RuleLogEntry{RequestID: "req-1", RuleID: "r2", Applied: false, Reason: "no-match:age", Timestamp: time.Now().UTC()})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got, err := store.ByRequest(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("ByRequest() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(got))
	}
	if got[0].RuleID != "r1" || got[1].RuleID != "r2" {
		t.Errorf("order = [%s %s], want [r1 r2]", got[0].RuleID, got[1].RuleID)
	}
}
