// internal/rules/match.go
package rules

import "github.com/dermassist/dermassist/internal/types"

/*
 * Condition matching.
 *
 * Evaluates a rule's conditions against the merged record with AND
 * semantics, short-circuiting on the first failing condition. Pure
 * function: no side effects, no I/O.
 *
 * Per-operator semantics:
 *   - exact: type-sensitive equality with numeric mixing
 *   - contains_any: record value intersects the condition list
 *   - contains_all: every condition element present in the record value
 *   - range: numeric value within inclusive bounds, nil bound = open side
 *
 * Missing or null fields always yield non-match rather than an error.
 * This keeps evaluation total over sparse profiles: the engine never
 * fails a request because the caller omitted a field.
 *
 * Numeric comparison: float64/int/int64 mixing for JSON and YAML
 * compatibility (both decoders produce different numeric types).
 */

// Matches reports whether every condition holds against the record.
func Matches(conditions []types.Condition, record map[string]any) bool {
	matched, _ := matchConditions(conditions, record)
	return matched
}

// matchConditions evaluates conditions with AND semantics.
// Short-circuits on first failure; the returned field names the failing
// condition for audit diagnostics.
func matchConditions(conditions []types.Condition, record map[string]any) (bool, string) {
	for _, cond := range conditions {
		if !matchCondition(cond, record) {
			return false, cond.Field
		}
	}
	return true, ""
}

// matchCondition evaluates a single condition against the record.
// Missing fields and unknown operators yield non-match, never an error;
// the loader guarantees operators are valid before evaluation.
func matchCondition(cond types.Condition, record map[string]any) bool {
	value, ok := record[cond.Field]
	if !ok || value == nil {
		return false
	}

	switch cond.Operator {
	case types.OpExact:
		return valuesEqual(value, cond.Value)
	case types.OpContainsAny:
		return containsAny(value, cond.Values)
	case types.OpContainsAll:
		return containsAll(value, cond.Values)
	case types.OpRange:
		return inRange(value, cond.Range)
	default:
		return false
	}
}

// valuesEqual performs equality comparison with numeric type mixing.
func valuesEqual(a, b any) bool {
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	return a == b
}

// containsAny reports whether the record value intersects the condition
// elements. The record value may be a list or a scalar (treated as a
// one-element set).
func containsAny(value any, elements []any) bool {
	set := toSlice(value)
	for _, elem := range elements {
		for _, member := range set {
			if valuesEqual(member, elem) {
				return true
			}
		}
	}
	return false
}

// containsAll reports whether every condition element is present in the
// record value.
func containsAll(value any, elements []any) bool {
	set := toSlice(value)
	for _, elem := range elements {
		found := false
		for _, member := range set {
			if valuesEqual(member, elem) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// inRange reports whether value falls within the inclusive bounds.
// Non-numeric values never match.
func inRange(value any, bounds *types.RangeBounds) bool {
	if bounds == nil {
		return false
	}
	f, ok := toFloat64(value)
	if !ok {
		return false
	}
	if bounds.Lower != nil && f < *bounds.Lower {
		return false
	}
	if bounds.Upper != nil && f > *bounds.Upper {
		return false
	}
	return true
}

// toSlice normalizes a record value to a slice of members.
// Handles []any (JSON/YAML decoding), []string (typed inputs), and
// scalars as single-member sets.
func toSlice(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

// asNumbers attempts to convert both values to float64 for numeric
// comparison. Returns converted values and success flag.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

// toFloat64 converts value to float64 if it's a numeric type.
// Handles float64 (JSON), int (YAML), and int64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
