// internal/rules/contraindication_test.go
package rules

import (
	"testing"

	"github.com/dermassist/dermassist/internal/types"
)

func ruleWithActions(actions types.ActionSet) *types.Rule {
	return &types.Rule{ID: "r", Conditions: []types.Condition{
		{Field: "skin_type", Operator: types.OpExact, Value: "oily"},
	}, Actions: actions}
}

func TestIsSafe(t *testing.T) {
	tests := []struct {
		name       string
		rule       *types.Rule
		profile    *types.ProfileInput
		wantSafe   bool
		wantReason string
	}{
		{
			name:     "nil profile is always safe",
			rule:     ruleWithActions(types.ActionSet{ProductTags: []string{"retinoid"}}),
			profile:  nil,
			wantSafe: true,
		},
		{
			name:       "pregnancy vetoes retinoid tags",
			rule:       ruleWithActions(types.ActionSet{ProductTags: []string{"retinoid"}}),
			profile:    &types.ProfileInput{PregnancyStatus: "pregnant"},
			wantSafe:   false,
			wantReason: ReasonPregnancy,
		},
		{
			name:       "breastfeeding vetoes retinoid tags",
			rule:       ruleWithActions(types.ActionSet{ProductTags: []string{"Retinol"}}),
			profile:    &types.ProfileInput{PregnancyStatus: "breastfeeding"},
			wantSafe:   false,
			wantReason: ReasonPregnancy,
		},
		{
			name:     "pregnancy with non-retinoid tags is safe",
			rule:     ruleWithActions(types.ActionSet{ProductTags: []string{"niacinamide", "sunscreen"}}),
			profile:  &types.ProfileInput{PregnancyStatus: "pregnant"},
			wantSafe: true,
		},
		{
			name:       "allergy to implied ingredient",
			rule:       ruleWithActions(types.ActionSet{ProductTags: []string{"BHA"}}),
			profile:    &types.ProfileInput{Allergies: []string{"Salicylic Acid"}},
			wantSafe:   false,
			wantReason: ReasonAllergy,
		},
		{
			name:       "allergy to tag itself",
			rule:       ruleWithActions(types.ActionSet{ProductTags: []string{"niacinamide"}}),
			profile:    &types.ProfileInput{Allergies: []string{"niacinamide"}},
			wantSafe:   false,
			wantReason: ReasonAllergy,
		},
		{
			name:     "allergy with no overlap",
			rule:     ruleWithActions(types.ActionSet{ProductTags: []string{"BHA"}}),
			profile:  &types.ProfileInput{Allergies: []string{"lanolin"}},
			wantSafe: true,
		},
		{
			name:       "very sensitive skin vetoes strong exfoliant warning",
			rule:       ruleWithActions(types.ActionSet{Warnings: []string{"Contains a strong exfoliant, patch test first"}}),
			profile:    &types.ProfileInput{SkinSensitivity: "very_sensitive"},
			wantSafe:   false,
			wantReason: ReasonSensitivity,
		},
		{
			name:     "moderately sensitive skin does not veto",
			rule:     ruleWithActions(types.ActionSet{Warnings: []string{"Contains a strong exfoliant, patch test first"}}),
			profile:  &types.ProfileInput{SkinSensitivity: "sensitive"},
			wantSafe: true,
		},
		{
			name:     "very sensitive skin with mild warnings is safe",
			rule:     ruleWithActions(types.ActionSet{Warnings: []string{"Apply sunscreen afterwards"}}),
			profile:  &types.ProfileInput{SkinSensitivity: "very_sensitive"},
			wantSafe: true,
		},
		{
			name:       "pregnancy veto checked before allergy",
			rule:       ruleWithActions(types.ActionSet{ProductTags: []string{"retinol"}}),
			profile:    &types.ProfileInput{PregnancyStatus: "pregnant", Allergies: []string{"retinol"}},
			wantSafe:   false,
			wantReason: ReasonPregnancy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, reason := IsSafe(tt.rule, tt.profile)
			if safe != tt.wantSafe {
				t.Errorf("IsSafe() = %v, want %v", safe, tt.wantSafe)
			}
			if reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}
