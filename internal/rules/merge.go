// internal/rules/merge.go
package rules

import "github.com/dermassist/dermassist/internal/types"

/*
 * Action merging.
 *
 * Accumulates the ActionSets of all matched-and-safe rules into one
 * output, iterating in rule declaration order. Deterministic by
 * construction: the same rules in the same order always produce the same
 * merged output, which reproducible audit trails and test fixtures
 * depend on.
 *
 * Merge policy:
 *   - product_tags, warnings: set union preserving first-occurrence order
 *   - routine_steps: appended per rule, renumbered globally from 1 so
 *     step numbers never collide across rules
 *   - diet_items: deduplicated by (item, frequency); first reason wins
 */

// MergeActions merges the action sets of applied rules in declaration
// order. Input rules are not modified; routine steps are copied before
// renumbering.
func MergeActions(applied []*types.Rule) types.ActionSet {
	var merged types.ActionSet

	seenTags := make(map[string]struct{})
	seenWarnings := make(map[string]struct{})
	seenDiet := make(map[dietKey]struct{})
	stepNumber := 0

	for _, rule := range applied {
		for _, tag := range rule.Actions.ProductTags {
			if _, ok := seenTags[tag]; ok {
				continue
			}
			seenTags[tag] = struct{}{}
			merged.ProductTags = append(merged.ProductTags, tag)
		}

		// Rule-internal step order is preserved; only the numbering is global.
		for _, step := range rule.Actions.RoutineSteps {
			stepNumber++
			step.StepNumber = stepNumber
			merged.RoutineSteps = append(merged.RoutineSteps, step)
		}

		for _, item := range rule.Actions.DietItems {
			key := dietKey{item: item.Item, frequency: item.Frequency}
			if _, ok := seenDiet[key]; ok {
				continue
			}
			seenDiet[key] = struct{}{}
			merged.DietItems = append(merged.DietItems, item)
		}

		for _, warning := range rule.Actions.Warnings {
			if _, ok := seenWarnings[warning]; ok {
				continue
			}
			seenWarnings[warning] = struct{}{}
			merged.Warnings = append(merged.Warnings, warning)
		}
	}

	return merged
}

// dietKey identifies a diet item for deduplication.
type dietKey struct {
	item      string
	frequency string
}
