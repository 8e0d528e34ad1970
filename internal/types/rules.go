// internal/types/rules.go
package types

/*
 * Domain types for rule evaluation.
 *
 * Provides Rule, Condition, ActionSet, and EscalationSpec structures used by
 * internal/rules for loading and evaluation. These types are source-format
 * agnostic - YAML-to-types conversion happens in the loader.
 *
 * Key types:
 *   - Rule: Complete rule definition, immutable after load
 *   - Condition: Single comparison with field name and operator
 *   - ActionSet: Product tags, routine steps, diet items, warnings
 *   - EscalationSpec: Severity signal for human referral
 *
 * Dependencies: None (standard library only)
 */

// Operator identifies a condition comparison. The set is closed; unknown
// operators are rejected at load time, never at evaluation time.
type Operator string

const (
	OpExact       Operator = "exact"
	OpContainsAny Operator = "contains_any"
	OpContainsAll Operator = "contains_all"
	OpRange       Operator = "range"
)

// Valid reports whether op is one of the known operators.
func (op Operator) Valid() bool {
	switch op {
	case OpExact, OpContainsAny, OpContainsAll, OpRange:
		return true
	default:
		return false
	}
}

// RangeBounds holds the inclusive bounds of a range condition.
// A nil bound is open-ended on that side; at least one must be set.
type RangeBounds struct {
	Lower *float64
	Upper *float64
}

// Condition represents a single condition in a rule. All conditions of a
// rule are ANDed. Value/Values/Range are operator-dependent: Value for
// exact, Values for contains_any/contains_all, Range for range.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
	Values   []any
	Range    *RangeBounds
}

// RoutineStep is one ordered step of a care routine. StepNumber is the
// rule-local number as authored; the merger renumbers globally.
type RoutineStep struct {
	StepNumber int    `json:"step_number" yaml:"step_number"`
	Action     string `json:"action" yaml:"action"`
	Frequency  string `json:"frequency" yaml:"frequency"`
	Timing     string `json:"timing" yaml:"timing"`
	Rationale  string `json:"rationale" yaml:"rationale"`
	Warning    string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// DietItem is one dietary recommendation. Deduplicated across rules by
// (Item, Frequency); the first occurrence's Reason wins.
type DietItem struct {
	Item      string `json:"item" yaml:"item"`
	Frequency string `json:"frequency" yaml:"frequency"`
	Reason    string `json:"reason" yaml:"reason"`
}

// ActionSet groups the actions a rule contributes when applied.
// ProductTags and Warnings behave as sets under merging.
type ActionSet struct {
	ProductTags  []string      `json:"product_tags,omitempty" yaml:"product_tags,omitempty"`
	RoutineSteps []RoutineStep `json:"routine_steps,omitempty" yaml:"routine_steps,omitempty"`
	DietItems    []DietItem    `json:"diet_items,omitempty" yaml:"diet_items,omitempty"`
	Warnings     []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// EscalationLevel is the ordered severity of an escalation:
// none < warning < caution < urgent.
type EscalationLevel string

const (
	LevelNone    EscalationLevel = "none"
	LevelWarning EscalationLevel = "warning"
	LevelCaution EscalationLevel = "caution"
	LevelUrgent  EscalationLevel = "urgent"
)

// Rank returns the position of the level in the severity total order.
// Unknown levels rank below none; the loader rejects them before they
// can reach comparison.
func (l EscalationLevel) Rank() int {
	switch l {
	case LevelNone:
		return 0
	case LevelWarning:
		return 1
	case LevelCaution:
		return 2
	case LevelUrgent:
		return 3
	default:
		return -1
	}
}

// Valid reports whether l is one of the four known levels.
func (l EscalationLevel) Valid() bool {
	return l.Rank() >= 0
}

// EscalationSpec signals that a human medical professional should be
// consulted. RequiresReferral is the single boolean the boundary layer
// uses for urgent presentation; formatting is not decided here.
type EscalationSpec struct {
	Level            EscalationLevel `json:"level" yaml:"level"`
	Message          string          `json:"message" yaml:"message"`
	NextSteps        []string        `json:"next_steps,omitempty" yaml:"next_steps,omitempty"`
	RequiresReferral bool            `json:"requires_referral" yaml:"requires_referral"`
}

// Rule represents a complete rule definition. Immutable after load; reload
// always constructs a brand-new set rather than mutating in place.
type Rule struct {
	ID          string
	Name        string
	Description string
	Conditions  []Condition
	Actions     ActionSet
	Escalation  *EscalationSpec
}
