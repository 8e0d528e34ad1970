// internal/rules/contraindication.go
package rules

import (
	"strings"

	"github.com/dermassist/dermassist/internal/types"
)

/*
 * Contraindication filtering.
 *
 * Applies a small, fixed set of cross-cutting safety vetoes to rules that
 * already matched their conditions. A veto excludes the rule's actions
 * from the output but never aborts the request; remaining rules continue
 * to be evaluated.
 *
 * Vetoes:
 *   - pregnancy/breastfeeding x retinoid-bearing product tags
 *   - profile allergies x ingredients implied by product tags
 *   - very_sensitive skin x strong-exfoliant warning markers
 *
 * The tag-to-ingredient and marker vocabularies are safety policy, not
 * rule data, so they ship with the engine rather than the rule source.
 * Matching is case-insensitive throughout; rule authors and profile
 * stores do not share a casing convention.
 */

// Contraindication reason strings recorded in the audit trail.
const (
	ReasonPregnancy   = "contraindication:pregnancy"
	ReasonAllergy     = "contraindication:allergy"
	ReasonSensitivity = "contraindication:sensitivity"
)

// retinoidTags marks product tags whose actions imply a retinoid.
var retinoidTags = map[string]struct{}{
	"retinoid":     {},
	"retinol":      {},
	"retinal":      {},
	"tretinoin":    {},
	"adapalene":    {},
	"tazarotene":   {},
	"isotretinoin": {},
}

// ingredientsByTag maps product tags to the active ingredients they imply,
// for allergy overlap checks. Tags absent here imply only themselves.
var ingredientsByTag = map[string][]string{
	"bha":              {"salicylic acid"},
	"aha":              {"glycolic acid", "lactic acid"},
	"pha":              {"gluconolactone"},
	"benzoyl_peroxide": {"benzoyl peroxide"},
	"vitamin_c":        {"ascorbic acid"},
	"niacinamide":      {"niacinamide"},
	"retinoid":         {"retinol", "tretinoin"},
	"retinol":          {"retinol"},
	"azelaic_acid":     {"azelaic acid"},
	"sunscreen":        {"oxybenzone", "avobenzone"},
	"ketoconazole":     {"ketoconazole"},
	"minoxidil":        {"minoxidil"},
}

// exfoliantMarkers flag warnings describing strong exfoliation.
// Substring match against lowercased warning text.
var exfoliantMarkers = []string{
	"strong exfoliant",
	"chemical peel",
	"high-strength acid",
	"aggressive exfoliation",
}

// IsSafe decides whether a matched rule's actions are safe to apply for
// this profile. Returns false with the contraindication reason on veto.
// Runs only on rules that already matched; it is a secondary veto, not a
// condition.
func IsSafe(rule *types.Rule, profile *types.ProfileInput) (bool, string) {
	if profile == nil {
		return true, ""
	}

	if pregnancyExcluded(profile.PregnancyStatus) && impliesRetinoid(rule.Actions.ProductTags) {
		return false, ReasonPregnancy
	}

	if allergyOverlap(profile.Allergies, rule.Actions.ProductTags) {
		return false, ReasonAllergy
	}

	if strings.EqualFold(profile.SkinSensitivity, "very_sensitive") && hasExfoliantMarker(rule.Actions.Warnings) {
		return false, ReasonSensitivity
	}

	return true, ""
}

// pregnancyExcluded reports whether the status triggers the retinoid veto.
// Breastfeeding is treated like pregnancy; systemic retinoid guidance
// makes no distinction between the two.
func pregnancyExcluded(status string) bool {
	switch strings.ToLower(status) {
	case "pregnant", "breastfeeding":
		return true
	default:
		return false
	}
}

// impliesRetinoid reports whether any product tag names a retinoid.
func impliesRetinoid(tags []string) bool {
	for _, tag := range tags {
		if _, ok := retinoidTags[strings.ToLower(tag)]; ok {
			return true
		}
	}
	return false
}

// allergyOverlap reports whether any known allergy matches an ingredient
// implied by the rule's product tags. The tag itself counts as an
// ingredient name so direct tag allergies are caught too.
func allergyOverlap(allergies, tags []string) bool {
	if len(allergies) == 0 || len(tags) == 0 {
		return false
	}

	allergySet := make(map[string]struct{}, len(allergies))
	for _, a := range allergies {
		allergySet[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}

	for _, tag := range tags {
		lower := strings.ToLower(tag)
		if _, ok := allergySet[lower]; ok {
			return true
		}
		for _, ingredient := range ingredientsByTag[lower] {
			if _, ok := allergySet[ingredient]; ok {
				return true
			}
		}
	}
	return false
}

// hasExfoliantMarker reports whether any warning carries a strong-exfoliant
// marker phrase.
func hasExfoliantMarker(warnings []string) bool {
	for _, warning := range warnings {
		lower := strings.ToLower(warning)
		for _, marker := range exfoliantMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}
