// Package insights turns a numeric diagnosis into the natural-language
// portion of the synchronization result. Generators word the findings;
// the numbers and priorities always come from the diagnosis itself.
package insights

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
)

// RuleBasedGenerator produces deterministic template wording from the
// diagnosis. It needs no external service and is the fallback for the
// LLM generator.
type RuleBasedGenerator struct {
	logger arbor.ILogger
}

// NewRuleBasedGenerator creates a rule-based insight generator
func NewRuleBasedGenerator(logger arbor.ILogger) *RuleBasedGenerator {
	return &RuleBasedGenerator{logger: logger}
}

// Name identifies this generator in logs and results
func (g *RuleBasedGenerator) Name() string {
	return "rule_based"
}

// Generate words the diagnosis using fixed templates. Identical
// diagnoses produce identical insights.
func (g *RuleBasedGenerator) Generate(_ context.Context, diagnosis *models.Diagnosis) (*models.Insights, error) {
	if diagnosis == nil {
		return nil, fmt.Errorf("diagnosis cannot be nil")
	}

	insights := &models.Insights{
		Strengths:  g.strengths(diagnosis),
		Weaknesses: g.weaknesses(diagnosis),
	}

	for _, priority := range []string{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		for _, od := range diagnosis.Objectives {
			if od.Priority != priority {
				continue
			}
			insights.Recommendations = append(insights.Recommendations, models.Recommendation{
				Priority:       od.Priority,
				Objective:      od.ObjectiveTitle,
				Actions:        recommendedActions(od),
				ExpectedImpact: expectedImpact(od, diagnosis.StrongSupportThreshold),
			})
		}
	}

	return insights, nil
}

func (g *RuleBasedGenerator) strengths(diagnosis *models.Diagnosis) []string {
	var strengths []string

	for _, od := range diagnosis.Objectives {
		if od.CombinedScore >= 90 {
			strengths = append(strengths, fmt.Sprintf(
				"Objective '%s' is strongly supported by the action plan (score %.0f)",
				od.ObjectiveTitle, od.CombinedScore))
		}
	}

	if diagnosis.MatchRate >= 80 && diagnosis.Summary.TotalStrategicEntities > 0 {
		strengths = append(strengths, fmt.Sprintf(
			"%.0f%% of strategic targets have a matching commitment in the action plan",
			diagnosis.MatchRate))
	}

	if diagnosis.EmbeddingScore >= 75 {
		strengths = append(strengths,
			"Action items track the strategic themes closely across the plan")
	}

	return strengths
}

func (g *RuleBasedGenerator) weaknesses(diagnosis *models.Diagnosis) []string {
	var weaknesses []string

	for _, od := range diagnosis.Objectives {
		if od.CombinedScore < 60 {
			weaknesses = append(weaknesses, fmt.Sprintf(
				"Objective '%s' lacks supporting actions (score %.0f)",
				od.ObjectiveTitle, od.CombinedScore))
		}
	}

	if unmatched := diagnosis.Summary.UnmatchedEntities; unmatched > 0 {
		weaknesses = append(weaknesses, fmt.Sprintf(
			"%d strategic target(s) have no counterpart in the action plan", unmatched))
	}

	return weaknesses
}

func recommendedActions(od models.ObjectiveDiagnosis) []string {
	var actions []string

	if od.WeakSimilarity {
		actions = append(actions,
			"Define action items that directly address this objective")
	}
	for _, entityType := range od.MissingEntityTypes {
		actions = append(actions, fmt.Sprintf(
			"Add actions covering the strategic %s targets", entityType))
	}
	if len(actions) == 0 && len(od.TopActions) > 0 {
		actions = append(actions, fmt.Sprintf(
			"Strengthen the closest existing action: %s", od.TopActions[0]))
	}
	if len(actions) == 0 {
		actions = append(actions,
			"Review this objective with the action plan owners")
	}

	return actions
}

func expectedImpact(od models.ObjectiveDiagnosis, strongThreshold float64) string {
	return fmt.Sprintf("Raising this objective from %.0f above %.0f would move it into strong support",
		od.CombinedScore, strongThreshold)
}

// Ensure RuleBasedGenerator implements the InsightGenerator interface
var _ interfaces.InsightGenerator = (*RuleBasedGenerator)(nil)
