package models

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// ObjectiveSynchronization is the per-objective diagnostic in the final result
type ObjectiveSynchronization struct {
	ObjectiveTitle     string   `json:"objective_title"`
	CombinedScore      float64  `json:"combined_score"`  // 0-100
	EmbeddingScore     float64  `json:"embedding_score"` // 0-100
	EntityMatches      int      `json:"entity_matches"`
	HasStrongSupport   bool     `json:"has_strong_support"`
	Gaps               []string `json:"gaps"`
	TopMatchingActions []string `json:"top_matching_actions"`
}

// Recommendation is one prioritized improvement suggestion
type Recommendation struct {
	Priority       string   `json:"priority"` // high, medium, low
	Objective      string   `json:"objective"`
	Actions        []string `json:"actions"`
	ExpectedImpact string   `json:"expected_impact,omitempty"`
}

// SynchronizationSummary aggregates counts for the final result
type SynchronizationSummary struct {
	TotalObjectives             int `json:"total_objectives"`
	ObjectivesWithStrongSupport int `json:"objectives_with_strong_support"`
	ObjectivesWithWeakSupport   int `json:"objectives_with_weak_support"`
	MatchedEntities             int `json:"matched_entities"`
	UnmatchedEntities           int `json:"unmatched_entities"`
	TotalStrategicEntities      int `json:"total_strategic_entities"`
}

// FinalSynchronizationResult is the single output of a pipeline run.
// Produced once, treated as an immutable value thereafter: it is
// persisted and read unmodified by the dashboard and Q&A consumers.
type FinalSynchronizationResult struct {
	RunID          string `json:"run_id"`
	AssessmentDate string `json:"assessment_date"`
	StrategicPlan  string `json:"strategic_plan"`
	ActionPlan     string `json:"action_plan"`

	OverallScore   float64 `json:"overall_score"`   // 0-100
	EmbeddingScore float64 `json:"embedding_score"` // 0-100
	EntityScore    float64 `json:"entity_score"`    // 0-100

	ObjectiveSynchronizations []ObjectiveSynchronization `json:"objective_synchronizations"`
	Strengths                 []string                   `json:"strengths"`
	Weaknesses                []string                   `json:"weaknesses"`
	Recommendations           []Recommendation           `json:"recommendations"`
	Summary                   SynchronizationSummary     `json:"summary"`
}
