package types

import (
	"errors"
	"fmt"
)

// LoadErrorKind classifies rule-source validation failures.
type LoadErrorKind string

const (
	// DuplicateRuleID indicates two rules share the same id.
	DuplicateRuleID LoadErrorKind = "duplicate_rule_id"

	// InvalidEscalationLevel indicates an escalation level outside the
	// known none/warning/caution/urgent set.
	InvalidEscalationLevel LoadErrorKind = "invalid_escalation_level"

	// MalformedCondition indicates a rule with no conditions, an unknown
	// operator, or an operator/value shape mismatch.
	MalformedCondition LoadErrorKind = "malformed_condition"
)

// LoadError is returned by the rule loader on validation failure. The
// caller must not swap the live RuleSet when it sees one (fail-closed).
type LoadError struct {
	Kind   LoadErrorKind
	RuleID string // offending rule id; may be empty for document-level failures
	Detail string
}

// Error implements error. Includes the rule id so an operator can fix
// the rule source without guessing.
func (e *LoadError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("rule load failed (%s): %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("rule load failed (%s) in rule %q: %s", e.Kind, e.RuleID, e.Detail)
}

// AsLoadError unwraps err to a *LoadError if it carries one.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// Sentinel errors for dermassist operations.
var (
	// ErrAuditClosed indicates a record was submitted after the audit
	// writer shut down. Counted as a drop, never propagated to evaluation.
	ErrAuditClosed = errors.New("audit writer closed")
)
