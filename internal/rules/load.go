// internal/rules/load.go
package rules

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dermassist/dermassist/internal/types"
)

/*
 * Rule source loading and validation.
 *
 * Parses the human-authored YAML rule document into an immutable RuleSet,
 * validating every rule before any rule becomes visible. Fail-closed: a
 * single invalid rule rejects the whole document so a live engine keeps
 * serving its previous set.
 *
 * Validation workflow:
 *   1. Strict YAML decode (unknown keys rejected)
 *   2. Per-rule: non-empty id, unique id, at least one condition
 *   3. Per-condition: known operator, operator/value shape consistency
 *   4. Escalation level within the closed none/warning/caution/urgent set
 *
 * Why load-time validation: rejecting unknown operators and malformed
 * values here keeps evaluation a total function - a loaded RuleSet can
 * always be evaluated against any input without raising.
 *
 * Declaration order is preserved; the merger and the escalation tie-break
 * both depend on it.
 */

// RuleSet is the complete, immutable collection of rules active at a point
// in time. Built once per load; never mutated - reload constructs a new set.
type RuleSet struct {
	rules []*types.Rule
	byID  map[string]*types.Rule
}

// Rules returns the rules in declaration order. Callers must not modify
// the returned slice or the rules it points to.
func (s *RuleSet) Rules() []*types.Rule {
	return s.rules
}

// Len returns the number of rules in the set.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Rule looks up a rule by id.
func (s *RuleSet) Rule(id string) (*types.Rule, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// ruleDocument mirrors the YAML rule source shape.
type ruleDocument struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Conditions  []conditionSpec `yaml:"conditions"`
	Actions     types.ActionSet `yaml:"actions"`
	Escalation  *escalationSpec `yaml:"escalation"`
}

type conditionSpec struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
	Value    any    `yaml:"value"`
}

type escalationSpec struct {
	Level            string   `yaml:"level"`
	Message          string   `yaml:"message"`
	NextSteps        []string `yaml:"next_steps"`
	RequiresReferral bool     `yaml:"requires_referral"`
}

// Load parses and validates a YAML rule source into a RuleSet.
// On any failure the returned error identifies the offending rule; the
// caller must keep its previous RuleSet active.
func Load(source []byte) (*RuleSet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(source))
	dec.KnownFields(true)

	var doc ruleDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse rule source: %w", err)
	}

	set := &RuleSet{
		rules: make([]*types.Rule, 0, len(doc.Rules)),
		byID:  make(map[string]*types.Rule, len(doc.Rules)),
	}

	for i, spec := range doc.Rules {
		rule, err := buildRule(i, spec)
		if err != nil {
			return nil, err
		}
		if _, exists := set.byID[rule.ID]; exists {
			return nil, &types.LoadError{
				Kind:   types.DuplicateRuleID,
				RuleID: rule.ID,
				Detail: "rule id declared more than once",
			}
		}
		set.rules = append(set.rules, rule)
		set.byID[rule.ID] = rule
	}

	return set, nil
}

// buildRule validates and converts one rule spec into an immutable Rule.
func buildRule(index int, spec ruleSpec) (*types.Rule, error) {
	if spec.ID == "" {
		return nil, &types.LoadError{
			Kind:   types.MalformedCondition,
			Detail: fmt.Sprintf("rule at index %d has no id", index),
		}
	}

	// A rule with zero conditions would match universally; reject at load.
	if len(spec.Conditions) == 0 {
		return nil, &types.LoadError{
			Kind:   types.MalformedCondition,
			RuleID: spec.ID,
			Detail: "rule has no conditions",
		}
	}

	conditions := make([]types.Condition, 0, len(spec.Conditions))
	for i, cs := range spec.Conditions {
		cond, err := buildCondition(spec.ID, i, cs)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}

	var escalation *types.EscalationSpec
	if spec.Escalation != nil {
		level := types.EscalationLevel(spec.Escalation.Level)
		if !level.Valid() {
			return nil, &types.LoadError{
				Kind:   types.InvalidEscalationLevel,
				RuleID: spec.ID,
				Detail: fmt.Sprintf("unknown escalation level %q", spec.Escalation.Level),
			}
		}
		escalation = &types.EscalationSpec{
			Level:            level,
			Message:          spec.Escalation.Message,
			NextSteps:        spec.Escalation.NextSteps,
			RequiresReferral: spec.Escalation.RequiresReferral,
		}
	}

	return &types.Rule{
		ID:          spec.ID,
		Name:        spec.Name,
		Description: spec.Description,
		Conditions:  conditions,
		Actions:     spec.Actions,
		Escalation:  escalation,
	}, nil
}

// buildCondition validates operator/value shape consistency and converts
// one condition spec into its typed form.
func buildCondition(ruleID string, index int, spec conditionSpec) (types.Condition, error) {
	malformed := func(format string, args ...any) (types.Condition, error) {
		return types.Condition{}, &types.LoadError{
			Kind:   types.MalformedCondition,
			RuleID: ruleID,
			Detail: fmt.Sprintf("condition %d: %s", index, fmt.Sprintf(format, args...)),
		}
	}

	if spec.Field == "" {
		return malformed("missing field")
	}

	op := types.Operator(spec.Operator)
	if !op.Valid() {
		return malformed("unknown operator %q", spec.Operator)
	}

	cond := types.Condition{Field: spec.Field, Operator: op}

	switch op {
	case types.OpExact:
		switch spec.Value.(type) {
		case string, bool, int, int64, float64:
			cond.Value = spec.Value
		case nil:
			return malformed("exact requires a scalar value")
		default:
			return malformed("exact requires a scalar value, got %T", spec.Value)
		}

	case types.OpContainsAny, types.OpContainsAll:
		list, ok := spec.Value.([]any)
		if !ok || len(list) == 0 {
			return malformed("%s requires a non-empty list value", op)
		}
		// Nested lists or mappings would make evaluation-time comparison
		// panic on uncomparable types; reject them here so a loaded set
		// stays evaluable against any input.
		for _, elem := range list {
			switch elem.(type) {
			case string, bool, int, int64, float64:
			default:
				return malformed("%s list elements must be scalars, got %T", op, elem)
			}
		}
		cond.Values = list

	case types.OpRange:
		bounds, err := buildRange(spec.Value)
		if err != nil {
			return malformed("%v", err)
		}
		cond.Range = bounds
	}

	return cond, nil
}

// buildRange converts a {lower, upper} mapping into RangeBounds.
// Either bound may be null (open-ended) but not both, and a closed range
// must not be inverted.
func buildRange(value any) (*types.RangeBounds, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("range requires a {lower, upper} mapping, got %T", value)
	}
	for key := range m {
		if key != "lower" && key != "upper" {
			return nil, fmt.Errorf("range has unknown bound %q", key)
		}
	}

	bounds := &types.RangeBounds{}
	var err error
	if bounds.Lower, err = rangeBound(m, "lower"); err != nil {
		return nil, err
	}
	if bounds.Upper, err = rangeBound(m, "upper"); err != nil {
		return nil, err
	}

	if bounds.Lower == nil && bounds.Upper == nil {
		return nil, fmt.Errorf("range requires at least one bound")
	}
	if bounds.Lower != nil && bounds.Upper != nil && *bounds.Lower > *bounds.Upper {
		return nil, fmt.Errorf("range lower bound %v exceeds upper bound %v", *bounds.Lower, *bounds.Upper)
	}
	return bounds, nil
}

// rangeBound extracts one named numeric bound; absent or null means open.
func rangeBound(m map[string]any, name string) (*float64, error) {
	raw, ok := m[name]
	if !ok || raw == nil {
		return nil, nil
	}
	f, ok := toFloat64(raw)
	if !ok {
		return nil, fmt.Errorf("range %s bound must be numeric, got %T", name, raw)
	}
	return &f, nil
}
