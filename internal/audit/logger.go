// internal/audit/logger.go
package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dermassist/dermassist/internal/types"
)

/*
 * Asynchronous audit writer.
 *
 * Logger buffers entries in a FIFO channel drained by a single writer
 * goroutine, which preserves per-request entry ordering. Record never
 * blocks the evaluation path: on a full buffer the entry is dropped and
 * counted rather than stalling a request.
 *
 * Write errors are counted and logged through the injected zerolog
 * logger; they never reach the caller. Close stops intake and flushes
 * whatever the buffer still holds, bounded by the flush timeout.
 */

// Logger is a buffered asynchronous Recorder draining to a Store.
type Logger struct {
	store        Store
	log          zerolog.Logger
	entries      chan types.RuleLogEntry
	flushTimeout time.Duration

	// mu guards closed against a Record racing the channel close.
	mu     sync.RWMutex
	closed bool

	dropped   atomic.Uint64
	writeErrs atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewLogger starts the writer goroutine. bufferSize bounds how many
// entries may be in flight; flushTimeout bounds how long Close waits for
// the drain.
func NewLogger(store Store, bufferSize int, flushTimeout time.Duration, log zerolog.Logger) *Logger {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	l := &Logger{
		store:        store,
		log:          log,
		entries:      make(chan types.RuleLogEntry, bufferSize),
		flushTimeout: flushTimeout,
		done:         make(chan struct{}),
	}
	go l.drain()
	return l
}

// Record implements Recorder. Non-blocking: a full buffer or a closed
// writer drops the entry and increments the drop counter.
func (l *Logger) Record(entry types.RuleLogEntry) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		l.countDrop(types.ErrAuditClosed.Error())
		return
	}
	select {
	case l.entries <- entry:
	default:
		l.countDrop("buffer full")
	}
}

// Close stops intake and flushes buffered entries. Safe to call more
// than once. Returns after the drain completes or the flush timeout
// elapses, whichever is first.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.entries)
		l.mu.Unlock()

		timeout := l.flushTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		select {
		case <-l.done:
		case <-time.After(timeout):
			l.log.Warn().Dur("timeout", timeout).Msg("audit flush timed out, remaining entries dropped")
		}
	})
	return nil
}

// Dropped returns the number of entries lost to buffer overflow or
// post-close records.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// WriteErrors returns the number of failed store writes.
func (l *Logger) WriteErrors() uint64 {
	return l.writeErrs.Load()
}

// drain is the single writer goroutine. One writer keeps per-request
// ordering without coordination.
func (l *Logger) drain() {
	defer close(l.done)
	for entry := range l.entries {
		if err := l.store.Insert(context.Background(), entry); err != nil {
			l.writeErrs.Add(1)
			l.log.Error().
				Err(err).
				Str("request_id", string(entry.RequestID)).
				Str("rule_id", entry.RuleID).
				Msg("audit write failed")
		}
	}
}

// countDrop increments the drop counter and logs the cause.
func (l *Logger) countDrop(cause string) {
	l.dropped.Add(1)
	l.log.Warn().Str("cause", cause).Msg("audit entry dropped")
}
