// internal/rules/record.go
package rules

import "github.com/dermassist/dermassist/internal/types"

/*
 * Merged evaluation record.
 *
 * Flattens AnalysisInput and ProfileInput into one map keyed by condition
 * field names. Analysis fields are written first, profile fields second;
 * on a key collision the profile wins (the profile store is authoritative
 * for demographics, the classifier's copy is advisory).
 *
 * Confidence scores flatten to "confidence_scores.<name>" so a range
 * condition can target a single score.
 *
 * Absent inputs simply leave keys unset; the matcher treats missing keys
 * as non-matching, never as errors.
 */

// MergedRecord builds the flat record conditions are evaluated against.
// Either input may be nil.
func MergedRecord(analysis *types.AnalysisInput, profile *types.ProfileInput) map[string]any {
	record := make(map[string]any)

	if analysis != nil {
		if analysis.SkinType != "" {
			record["skin_type"] = analysis.SkinType
		}
		if analysis.HairType != "" {
			record["hair_type"] = analysis.HairType
		}
		if len(analysis.ConditionsDetected) > 0 {
			record["conditions_detected"] = analysis.ConditionsDetected
		}
		for name, score := range analysis.ConfidenceScores {
			record["confidence_scores."+name] = score
		}
		for key, value := range analysis.Extra {
			record[key] = value
		}
	}

	if profile != nil {
		if profile.Age != nil {
			record["age"] = *profile.Age
		}
		if profile.Gender != "" {
			record["gender"] = profile.Gender
		}
		if len(profile.Allergies) > 0 {
			record["allergies"] = profile.Allergies
		}
		if profile.PregnancyStatus != "" {
			record["pregnancy_status"] = profile.PregnancyStatus
		}
		if profile.SkinSensitivity != "" {
			record["skin_sensitivity"] = profile.SkinSensitivity
		}
		if profile.Budget != "" {
			record["budget"] = profile.Budget
		}
	}

	return record
}
