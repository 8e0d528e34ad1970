// internal/rules/engine.go
package rules

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dermassist/dermassist/internal/audit"
	"github.com/dermassist/dermassist/internal/types"
)

/*
 * Engine facade.
 *
 * Orchestrates one evaluation: match every rule in the active snapshot,
 * veto unsafe matches, merge the surviving action sets, resolve the
 * escalation, and emit one audit entry per rule regardless of outcome.
 *
 * Request flow per rule: match (match.go) -> contraindication veto
 * (contraindication.go) -> accumulate. Then merge (merge.go) and
 * escalation resolution (escalate.go) over the accumulated set.
 *
 * Concurrency: the only shared mutable state is the active RuleSet
 * reference, held in an atomic pointer. Evaluations load one complete
 * snapshot and never lock; Reload builds and validates a whole new set
 * before a single pointer swap, so in-flight requests always see a
 * consistent old-or-new set. Reload is fail-closed: on a load error the
 * previous set keeps serving.
 *
 * Audit emission is fire-and-forget through the injected Recorder;
 * recorder failures cannot fail or slow an evaluation.
 */

// Engine evaluates recommendation requests against an atomically
// swappable RuleSet.
type Engine struct {
	active   atomic.Pointer[RuleSet]
	recorder audit.Recorder
	log      zerolog.Logger

	evaluations  atomic.Uint64
	rulesApplied atomic.Uint64
	reloads      atomic.Uint64
}

// Stats is a point-in-time snapshot of engine counters for the
// observability collaborator.
type Stats struct {
	Evaluations  uint64 `json:"evaluations"`
	RulesApplied uint64 `json:"rules_applied"`
	Reloads      uint64 `json:"reloads"`
	ActiveRules  int    `json:"active_rules"`
}

// NewEngine creates an engine serving the given initial set.
// A nil recorder disables auditing; a nil set starts the engine empty
// until the first successful Reload.
func NewEngine(set *RuleSet, recorder audit.Recorder, log zerolog.Logger) *Engine {
	if set == nil {
		set = &RuleSet{byID: map[string]*types.Rule{}}
	}
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	e := &Engine{recorder: recorder, log: log}
	e.active.Store(set)
	return e
}

// Evaluate produces the recommendation bundle for one request.
// Pure function of (active RuleSet, analysis, profile) plus the audit
// side effect; it cannot fail once a set has loaded, so there is no
// error return.
func (e *Engine) Evaluate(analysis *types.AnalysisInput, profile *types.ProfileInput) *types.RecommendationOutput {
	set := e.active.Load()
	requestID := types.NewRequestID()
	record := MergedRecord(analysis, profile)

	var applied []*types.Rule
	for _, rule := range set.Rules() {
		matched, failedField := matchConditions(rule.Conditions, record)
		if !matched {
			e.audit(requestID, rule.ID, false, "no-match:"+failedField)
			continue
		}

		safe, reason := IsSafe(rule, profile)
		if !safe {
			e.audit(requestID, rule.ID, false, reason)
			continue
		}

		e.audit(requestID, rule.ID, true, "applied")
		applied = append(applied, rule)
	}

	merged := MergeActions(applied)

	output := &types.RecommendationOutput{
		Routines:       emptyIfNil(merged.RoutineSteps),
		ProductTags:    emptyIfNil(merged.ProductTags),
		Diet:           emptyIfNil(merged.DietItems),
		Warnings:       emptyIfNil(merged.Warnings),
		Escalation:     ResolveEscalation(applied),
		AppliedRuleIDs: make([]string, 0, len(applied)),
	}
	for _, rule := range applied {
		output.AppliedRuleIDs = append(output.AppliedRuleIDs, rule.ID)
	}

	e.evaluations.Add(1)
	e.rulesApplied.Add(uint64(len(applied)))

	e.log.Debug().
		Str("request_id", string(requestID)).
		Int("rules_evaluated", set.Len()).
		Int("rules_applied", len(applied)).
		Msg("evaluation complete")

	return output
}

// Reload builds a new RuleSet from source and atomically swaps it in.
// Returns the rule count of the new set. Fail-closed: on error the
// previous set stays active and the error is returned to the operator.
func (e *Engine) Reload(source []byte) (int, error) {
	set, err := Load(source)
	if err != nil {
		e.log.Warn().Err(err).Msg("rule reload rejected, previous set stays active")
		return 0, err
	}

	e.active.Store(set)
	e.reloads.Add(1)
	e.log.Info().Int("rules", set.Len()).Msg("rule set reloaded")
	return set.Len(), nil
}

// ActiveRules returns the size of the currently active set.
func (e *Engine) ActiveRules() int {
	return e.active.Load().Len()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Evaluations:  e.evaluations.Load(),
		RulesApplied: e.rulesApplied.Load(),
		Reloads:      e.reloads.Load(),
		ActiveRules:  e.ActiveRules(),
	}
}

// audit emits one per-rule decision entry. Fire-and-forget: the recorder
// owns buffering and failure isolation.
func (e *Engine) audit(requestID types.RequestID, ruleID string, applied bool, reason string) {
	e.recorder.Record(types.RuleLogEntry{
		RequestID: requestID,
		RuleID:    ruleID,
		Applied:   applied,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

// emptyIfNil normalizes nil slices to empty so output JSON is stable
// regardless of how many rules applied.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
