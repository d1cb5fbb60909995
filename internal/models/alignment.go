package models

// ActionMatch is one ranked action candidate for an objective
type ActionMatch struct {
	ActionID    string  `json:"action_id"`
	ActionTitle string  `json:"action_title"`
	Similarity  float64 `json:"similarity"` // 0-1
}

// ObjectiveAlignment holds the semantic ranking of actions against one
// objective. BestMatchScore is the top similarity among the retrieved
// candidates, or 0 when none clears the minimum candidate bar.
type ObjectiveAlignment struct {
	ObjectiveID    string        `json:"objective_id"`
	ObjectiveTitle string        `json:"objective_title"`
	SectionID      string        `json:"section_id"`
	TopMatches     []ActionMatch `json:"top_matches"`
	BestMatchScore float64       `json:"best_match_score"`
	DegradedReason string        `json:"degraded_reason,omitempty"` // Set when a provider failure zeroed this objective
}

// EmbeddingAnalysisResult is the output of semantic alignment.
// EmbeddingScore is the mean of per-objective best match scores x 100.
type EmbeddingAnalysisResult struct {
	ObjectiveAlignments []ObjectiveAlignment `json:"objective_alignments"`
	EmbeddingScore      float64              `json:"embedding_score"` // 0-100
}
