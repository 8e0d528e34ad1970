// Package audit records per-rule evaluation decisions to a durable trail.
//
// The engine calls Record once per rule per request, fire-and-forget:
// the write path is asynchronous and its failures are counted and logged,
// never propagated to the evaluation path. Per-request entry ordering is
// preserved by a single writer goroutine draining a FIFO buffer.
package audit

import "github.com/dermassist/dermassist/internal/types"

// Recorder accepts rule evaluation decisions. Implementations must not
// block the caller; the evaluation path treats Record as free.
type Recorder interface {
	Record(entry types.RuleLogEntry)
}

// NopRecorder discards all entries. Used when no audit store is
// configured and by tests that don't assert on the trail.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(types.RuleLogEntry) {}
