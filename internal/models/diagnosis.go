package models

// ObjectiveDiagnosis is the numeric/structural assessment of one objective
// computed by the fusion engine. Insight generators turn it into wording
// but never alter its numbers.
type ObjectiveDiagnosis struct {
	ObjectiveTitle     string       `json:"objective_title"`
	CombinedScore      float64      `json:"combined_score"`       // 0-100
	EmbeddingScore     float64      `json:"embedding_score"`      // 0-100
	EntitySupportScore float64      `json:"entity_support_score"` // 0-100
	BestSimilarity     float64      `json:"best_similarity"`      // 0-1
	EntityMatches      int          `json:"entity_matches"`
	MissingEntityTypes []EntityType `json:"missing_entity_types"`
	WeakSimilarity     bool         `json:"weak_similarity"`
	HasStrongSupport   bool         `json:"has_strong_support"`
	Gaps               []string     `json:"gaps"`
	TopActions         []string     `json:"top_actions"`
	Priority           string       `json:"priority,omitempty"` // Set for weak objectives only
}

// Diagnosis is the complete numeric/structural picture handed to an
// InsightGenerator. Identical inputs yield an identical diagnosis.
type Diagnosis struct {
	Objectives             []ObjectiveDiagnosis   `json:"objectives"`
	OverallScore           float64                `json:"overall_score"`
	EmbeddingScore         float64                `json:"embedding_score"`
	EntityScore            float64                `json:"entity_score"`
	MatchRate              float64                `json:"match_rate"`
	Summary                SynchronizationSummary `json:"summary"`
	StrongSupportThreshold float64                `json:"strong_support_threshold"`
	SimilarityThreshold    float64                `json:"similarity_threshold"`
}

// Insights is the natural-language portion of the final result as
// produced by an InsightGenerator
type Insights struct {
	Strengths       []string         `json:"strengths"`
	Weaknesses      []string         `json:"weaknesses"`
	Recommendations []Recommendation `json:"recommendations"`
}
