// internal/rules/properties_test.go
package rules

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"github.com/dermassist/dermassist/internal/types"
)

const propertyRuleSource = `
rules:
  - id: oily-bha
    conditions:
      - {field: skin_type, operator: exact, value: oily}
    actions:
      product_tags: [BHA, niacinamide]
      routine_steps:
        - {step_number: 1, action: cleanse, frequency: daily, timing: morning}
        - {step_number: 2, action: tone, frequency: daily, timing: morning}
      warnings: [patch test first]
    escalation:
      level: warning
      message: monitor oil production
  - id: acne-retinoid
    conditions:
      - {field: conditions_detected, operator: contains_any, value: [acne, pimples]}
    actions:
      product_tags: [retinoid, niacinamide]
      routine_steps:
        - {step_number: 1, action: apply treatment, frequency: nightly, timing: evening}
      warnings: [patch test first, apply at night]
    escalation:
      level: caution
      message: persistent acne may need prescription care
  - id: adult
    conditions:
      - {field: age, operator: range, value: {lower: 18, upper: null}}
    actions:
      product_tags: [sunscreen]
      diet_items:
        - {item: water, frequency: daily, reason: hydration}
  - id: severe
    conditions:
      - {field: conditions_detected, operator: contains_all, value: [acne, scarring]}
    escalation:
      level: urgent
      message: dermatologist referral
      requires_referral: true
`

func propertyEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(mustLoad(t, propertyRuleSource), nil, zerolog.Nop())
}

func propertyInputs(skinType string, hasAcne, hasScarring bool, age int, pregnant bool) (*types.AnalysisInput, *types.ProfileInput) {
	analysis := &types.AnalysisInput{SkinType: skinType}
	if hasAcne {
		analysis.ConditionsDetected = append(analysis.ConditionsDetected, "acne")
	}
	if hasScarring {
		analysis.ConditionsDetected = append(analysis.ConditionsDetected, "scarring")
	}

	profile := &types.ProfileInput{Age: &age}
	if pregnant {
		profile.PregnancyStatus = "pregnant"
	}
	return analysis, profile
}

func TestEvaluateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	skinTypes := gen.OneConstOf("oily", "dry", "combination", "normal")
	ages := gen.IntRange(5, 95)

	properties.Property("evaluation is deterministic", prop.ForAll(
		func(skinType string, hasAcne, hasScarring bool, age int, pregnant bool) bool {
			engine := propertyEngine(t)
			analysis, profile := propertyInputs(skinType, hasAcne, hasScarring, age, pregnant)

			first, err := json.Marshal(engine.Evaluate(analysis, profile))
			if err != nil {
				return false
			}
			second, err := json.Marshal(engine.Evaluate(analysis, profile))
			if err != nil {
				return false
			}
			return string(first) == string(second)
		},
		skinTypes, gen.Bool(), gen.Bool(), ages, gen.Bool(),
	))

	properties.Property("output tags and warnings carry no duplicates", prop.ForAll(
		func(skinType string, hasAcne, hasScarring bool, age int, pregnant bool) bool {
			engine := propertyEngine(t)
			analysis, profile := propertyInputs(skinType, hasAcne, hasScarring, age, pregnant)
			out := engine.Evaluate(analysis, profile)

			return noDuplicates(out.ProductTags) && noDuplicates(out.Warnings)
		},
		skinTypes, gen.Bool(), gen.Bool(), ages, gen.Bool(),
	))

	properties.Property("routine steps are numbered 1..n", prop.ForAll(
		func(skinType string, hasAcne, hasScarring bool, age int, pregnant bool) bool {
			engine := propertyEngine(t)
			analysis, profile := propertyInputs(skinType, hasAcne, hasScarring, age, pregnant)
			out := engine.Evaluate(analysis, profile)

			for i, step := range out.Routines {
				if step.StepNumber != i+1 {
					return false
				}
			}
			return true
		},
		skinTypes, gen.Bool(), gen.Bool(), ages, gen.Bool(),
	))

	properties.Property("escalation level is the maximum among applied rules", prop.ForAll(
		func(skinType string, hasAcne, hasScarring bool, age int, pregnant bool) bool {
			engine := propertyEngine(t)
			analysis, profile := propertyInputs(skinType, hasAcne, hasScarring, age, pregnant)
			out := engine.Evaluate(analysis, profile)

			set := mustLoad(t, propertyRuleSource)
			maxRank := -1
			for _, id := range out.AppliedRuleIDs {
				rule, ok := set.Rule(id)
				if !ok {
					return false
				}
				if rule.Escalation != nil && rule.Escalation.Level.Rank() > maxRank {
					maxRank = rule.Escalation.Level.Rank()
				}
			}
			if maxRank < 0 {
				return out.Escalation == nil
			}
			return out.Escalation != nil && out.Escalation.Level.Rank() == maxRank
		},
		skinTypes, gen.Bool(), gen.Bool(), ages, gen.Bool(),
	))

	properties.Property("pregnant profiles never receive retinoid tags", prop.ForAll(
		func(skinType string, hasAcne, hasScarring bool, age int) bool {
			engine := propertyEngine(t)
			analysis, profile := propertyInputs(skinType, hasAcne, hasScarring, age, true)
			out := engine.Evaluate(analysis, profile)

			for _, tag := range out.ProductTags {
				if impliesRetinoid([]string{tag}) {
					return false
				}
			}
			return true
		},
		skinTypes, gen.Bool(), gen.Bool(), ages,
	))

	properties.Property("applied rule ids follow declaration order", prop.ForAll(
		func(skinType string, hasAcne, hasScarring bool, age int, pregnant bool) bool {
			engine := propertyEngine(t)
			analysis, profile := propertyInputs(skinType, hasAcne, hasScarring, age, pregnant)
			out := engine.Evaluate(analysis, profile)

			order := map[string]int{"oily-bha": 0, "acne-retinoid": 1, "adult": 2, "severe": 3}
			for i := 1; i < len(out.AppliedRuleIDs); i++ {
				if order[out.AppliedRuleIDs[i]] <= order[out.AppliedRuleIDs[i-1]] {
					return false
				}
			}
			return true
		},
		skinTypes, gen.Bool(), gen.Bool(), ages, gen.Bool(),
	))

	properties.TestingRun(t)
}

func noDuplicates(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return false
		}
		seen[v] = struct{}{}
	}
	return true
}
