package models

// EntityType classifies an extractable typed fact
type EntityType string

const (
	EntityTypeKPI        EntityType = "KPI"
	EntityTypeBudget     EntityType = "BUDGET"
	EntityTypeTimeline   EntityType = "TIMELINE"
	EntityTypeGoal       EntityType = "GOAL"
	EntityTypeInitiative EntityType = "INITIATIVE"
	EntityTypeMetric     EntityType = "METRIC"
	EntityTypeOther      EntityType = "OTHER"
)

// Entity is a typed fact extracted from a document. Created once per
// extraction pass; never mutated.
type Entity struct {
	ID              string     `json:"id"`
	Type            EntityType `json:"type"`
	Text            string     `json:"text"`             // Raw text span
	NormalizedValue string     `json:"normalized_value"` // Canonical form used for comparison
	DocumentID      string     `json:"document_id"`
	SectionID       string     `json:"section_id"`
}

const (
	MatchTypeExact   = "exact"
	MatchTypeFuzzy   = "fuzzy"
	MatchTypePartial = "partial"
)

// EntityMatch pairs a strategic entity with an action entity.
// Within one EntityAnalysisResult every entity appears in at most one
// match: the matching is a partial bijection, never many-to-one.
type EntityMatch struct {
	StrategicEntity Entity  `json:"strategic_entity"`
	ActionEntity    Entity  `json:"action_entity"`
	MatchType       string  `json:"match_type"`  // exact, fuzzy, partial
	MatchScore      float64 `json:"match_score"` // 0-100
}

// EntityAnalysisResult is the output of cross-document entity matching
type EntityAnalysisResult struct {
	EntityMatches              []EntityMatch `json:"entity_matches"` // Ordered by descending match score
	UnmatchedStrategicEntities []Entity      `json:"unmatched_strategic_entities"`
	UnmatchedActionEntities    []Entity      `json:"unmatched_action_entities"`
	OverallScore               float64       `json:"overall_score"` // 0-100
	MatchedEntities            int           `json:"matched_entities"`
	TotalStrategicEntities     int           `json:"total_strategic_entities"`
	MatchRate                  float64       `json:"match_rate"` // matched/total x 100, 0 when total is 0
}
