// internal/rules/escalate.go
package rules

import "github.com/dermassist/dermassist/internal/types"

/*
 * Escalation prioritization.
 *
 * Resolves the single escalation presented to the caller: the highest
 * level among matched-and-safe rules per the total order
 * none < warning < caution < urgent. Ties resolve to the earliest
 * declared rule, so output is deterministic for a given rule order.
 *
 * This subsystem decides only the EscalationSpec (level, message, referral
 * flag); presentation belongs to the boundary layer.
 */

// ResolveEscalation selects the highest-severity escalation among applied
// rules, or nil if no applied rule escalates. The returned spec is a copy;
// callers cannot mutate the loaded rules through it.
func ResolveEscalation(applied []*types.Rule) *types.EscalationSpec {
	var chosen *types.EscalationSpec

	for _, rule := range applied {
		esc := rule.Escalation
		if esc == nil {
			continue
		}
		// Strictly-greater comparison keeps the earliest rule on ties.
		if chosen == nil || esc.Level.Rank() > chosen.Level.Rank() {
			chosen = esc
		}
	}

	if chosen == nil {
		return nil
	}

	out := *chosen
	if len(chosen.NextSteps) > 0 {
		out.NextSteps = append([]string(nil), chosen.NextSteps...)
	}
	return &out
}
