// Package types provides domain models shared across dermassist components.
//
// Zero-dependency design: types.go, rules.go, and errors.go use only the
// standard library so the engine can be embedded without pulling in the
// persistence or CLI stacks. ID utilities in ids.go import uuid but are
// isolated for selective inclusion.
package types

import "time"

// AnalysisInput is the structured output of the external image classifier,
// plus free-form caller-supplied fields. Read-only to the engine.
type AnalysisInput struct {
	SkinType           string             `json:"skin_type,omitempty"`
	HairType           string             `json:"hair_type,omitempty"`
	ConditionsDetected []string           `json:"conditions_detected,omitempty"`
	ConfidenceScores   map[string]float64 `json:"confidence_scores,omitempty"`

	// Extra carries numeric/categorical fields merged from the caller
	// (age, climate, etc.). Values are addressable by condition field name.
	Extra map[string]any `json:"extra,omitempty"`
}

// ProfileInput is the user profile from the persistence collaborator.
// Read-only to the engine. Empty/nil fields mean "not provided"; the
// matcher treats absent fields as non-matching, never as errors.
type ProfileInput struct {
	Age             *int     `json:"age,omitempty"`
	Gender          string   `json:"gender,omitempty"`
	Allergies       []string `json:"allergies,omitempty"`
	PregnancyStatus string   `json:"pregnancy_status,omitempty"`
	SkinSensitivity string   `json:"skin_sensitivity,omitempty"`
	Budget          string   `json:"budget,omitempty"`
}

// RecommendationOutput is the merged result of one evaluation.
// Created fresh per request; never mutated after the engine returns it.
type RecommendationOutput struct {
	Routines       []RoutineStep   `json:"routines"`
	ProductTags    []string        `json:"product_tags"`
	Diet           []DietItem      `json:"diet"`
	Warnings       []string        `json:"warnings"`
	Escalation     *EscalationSpec `json:"escalation,omitempty"`
	AppliedRuleIDs []string        `json:"applied_rule_ids"`
}

// RuleLogEntry records one per-rule decision for the audit trail.
// Append-only; one entry per rule per request whether the rule was
// applied, failed to match, or was vetoed by contraindication.
type RuleLogEntry struct {
	RequestID RequestID `json:"request_id" db:"request_id"`
	RuleID    string    `json:"rule_id" db:"rule_id"`
	Applied   bool      `json:"applied" db:"applied"`
	Reason    string    `json:"reason" db:"reason"`
	Timestamp time.Time `json:"timestamp" db:"created_at"`
}
