// Package fusion combines semantic alignment and entity matching into
// the final synchronization result.
package fusion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
)

const (
	strengthThreshold      = 90.0
	weaknessThreshold      = 60.0
	highPriorityThreshold  = 50.0
	mediumPriorityThreshold = 75.0
)

// Engine fuses the two analysis signals into per-objective diagnoses and
// a final result. The numeric diagnosis is computed here and is never
// altered by the insight generator that words it.
type Engine struct {
	config    *common.AnalysisConfig
	generator interfaces.InsightGenerator
	fallback  interfaces.InsightGenerator
	logger    arbor.ILogger
}

// NewEngine creates a fusion engine. fallback may be nil; when set it is
// used if the primary insight generator fails. Weights that do not sum
// to 1 are a configuration error.
func NewEngine(config *common.AnalysisConfig, generator interfaces.InsightGenerator, fallback interfaces.InsightGenerator, logger arbor.ILogger) (*Engine, error) {
	if sum := config.EmbeddingWeight + config.EntityWeight; sum < 1-1e-9 || sum > 1+1e-9 {
		return nil, &common.ConfigurationError{
			Field:  "analysis.embedding_weight/entity_weight",
			Reason: fmt.Sprintf("weights must sum to 1, got %.4f", sum),
		}
	}
	if generator == nil {
		return nil, &common.ConfigurationError{
			Field:  "llm.insights",
			Reason: "an insight generator is required",
		}
	}

	return &Engine{
		config:    config,
		generator: generator,
		fallback:  fallback,
		logger:    logger,
	}, nil
}

// Combine fuses both analysis results into the final synchronization
// result. The output is deterministic apart from the assessment date
// and any LLM-generated wording: identical inputs produce identical
// scores, ordering, and priorities.
func (e *Engine) Combine(ctx context.Context, embedding *models.EmbeddingAnalysisResult, entity *models.EntityAnalysisResult, strategic, action *models.StructuredDocument) (*models.FinalSynchronizationResult, error) {
	if embedding == nil || entity == nil || strategic == nil || action == nil {
		return nil, common.ErrInputNotFound
	}

	diagnosis := e.diagnose(embedding, entity)

	insights, err := e.generateInsights(ctx, diagnosis)
	if err != nil {
		return nil, err
	}

	result := &models.FinalSynchronizationResult{
		AssessmentDate:  time.Now().Format("2006-01-02"),
		StrategicPlan:   strategic.Title,
		ActionPlan:      action.Title,
		OverallScore:    diagnosis.OverallScore,
		EmbeddingScore:  diagnosis.EmbeddingScore,
		EntityScore:     diagnosis.EntityScore,
		Strengths:       insights.Strengths,
		Weaknesses:      insights.Weaknesses,
		Recommendations: insights.Recommendations,
		Summary:         diagnosis.Summary,
	}

	for _, od := range diagnosis.Objectives {
		result.ObjectiveSynchronizations = append(result.ObjectiveSynchronizations, models.ObjectiveSynchronization{
			ObjectiveTitle:     od.ObjectiveTitle,
			CombinedScore:      od.CombinedScore,
			EmbeddingScore:     od.EmbeddingScore,
			EntityMatches:      od.EntityMatches,
			HasStrongSupport:   od.HasStrongSupport,
			Gaps:               od.Gaps,
			TopMatchingActions: od.TopActions,
		})
	}

	e.logger.Info().
		Float64("overall_score", result.OverallScore).
		Int("objectives", len(result.ObjectiveSynchronizations)).
		Int("strong_support", result.Summary.ObjectivesWithStrongSupport).
		Msg("Fusion complete")

	return result, nil
}

// sectionEntityStats accumulates strategic entity outcomes per section
type sectionEntityStats struct {
	total          int
	matched        int
	scoreSum       float64
	unmatchedTypes map[models.EntityType]bool
}

// diagnose computes the full numeric picture: per-objective combined
// scores, gaps, priorities, and the document-level aggregates
func (e *Engine) diagnose(embedding *models.EmbeddingAnalysisResult, entity *models.EntityAnalysisResult) *models.Diagnosis {
	stats := collectSectionStats(entity)

	diagnosis := &models.Diagnosis{
		EmbeddingScore:         embedding.EmbeddingScore,
		EntityScore:            entity.OverallScore,
		MatchRate:              entity.MatchRate,
		StrongSupportThreshold: e.config.StrongSupportThreshold,
		SimilarityThreshold:    e.config.SimilarityThreshold,
	}

	diagnosis.OverallScore = clampScore(
		e.config.EmbeddingWeight*embedding.EmbeddingScore + e.config.EntityWeight*entity.OverallScore)

	for _, alignment := range embedding.ObjectiveAlignments {
		diagnosis.Objectives = append(diagnosis.Objectives, e.diagnoseObjective(alignment, entity, stats))
	}

	diagnosis.Summary = models.SynchronizationSummary{
		TotalObjectives:        len(diagnosis.Objectives),
		MatchedEntities:        entity.MatchedEntities,
		UnmatchedEntities:      len(entity.UnmatchedStrategicEntities),
		TotalStrategicEntities: entity.TotalStrategicEntities,
	}
	for _, od := range diagnosis.Objectives {
		if od.HasStrongSupport {
			diagnosis.Summary.ObjectivesWithStrongSupport++
		} else {
			diagnosis.Summary.ObjectivesWithWeakSupport++
		}
	}

	return diagnosis
}

func collectSectionStats(entity *models.EntityAnalysisResult) map[string]*sectionEntityStats {
	stats := make(map[string]*sectionEntityStats)
	get := func(sectionID string) *sectionEntityStats {
		s, ok := stats[sectionID]
		if !ok {
			s = &sectionEntityStats{unmatchedTypes: make(map[models.EntityType]bool)}
			stats[sectionID] = s
		}
		return s
	}

	for _, match := range entity.EntityMatches {
		s := get(match.StrategicEntity.SectionID)
		s.total++
		s.matched++
		s.scoreSum += match.MatchScore
	}
	for _, unmatched := range entity.UnmatchedStrategicEntities {
		s := get(unmatched.SectionID)
		s.total++
		s.unmatchedTypes[unmatched.Type] = true
	}

	return stats
}

func (e *Engine) diagnoseObjective(alignment models.ObjectiveAlignment, entity *models.EntityAnalysisResult, stats map[string]*sectionEntityStats) models.ObjectiveDiagnosis {
	od := models.ObjectiveDiagnosis{
		ObjectiveTitle: alignment.ObjectiveTitle,
		EmbeddingScore: alignment.BestMatchScore * 100,
		BestSimilarity: alignment.BestMatchScore,
	}

	// Entity support is section-scoped; a section that contributed no
	// strategic entities inherits the document-level entity score
	sectionStats := stats[alignment.SectionID]
	if sectionStats != nil && sectionStats.total > 0 {
		od.EntitySupportScore = sectionStats.scoreSum / float64(sectionStats.total)
		od.EntityMatches = sectionStats.matched
		for entityType := range sectionStats.unmatchedTypes {
			od.MissingEntityTypes = append(od.MissingEntityTypes, entityType)
		}
		sortEntityTypes(od.MissingEntityTypes)
	} else {
		od.EntitySupportScore = entity.OverallScore
	}

	od.CombinedScore = clampScore(
		e.config.EmbeddingWeight*od.EmbeddingScore + e.config.EntityWeight*od.EntitySupportScore)
	od.HasStrongSupport = od.CombinedScore >= e.config.StrongSupportThreshold
	od.WeakSimilarity = alignment.BestMatchScore < e.config.SimilarityThreshold

	if od.WeakSimilarity {
		od.Gaps = append(od.Gaps, "no supporting action found above similarity threshold")
	}
	for _, entityType := range od.MissingEntityTypes {
		od.Gaps = append(od.Gaps, fmt.Sprintf("no action-plan match for strategic %s", entityType))
	}
	if alignment.DegradedReason != "" {
		od.Gaps = append(od.Gaps, "semantic analysis unavailable: "+alignment.DegradedReason)
	}

	for _, match := range alignment.TopMatches {
		od.TopActions = append(od.TopActions, fmt.Sprintf("%s (similarity %.2f)", match.ActionTitle, match.Similarity))
	}

	if !od.HasStrongSupport {
		switch {
		case od.CombinedScore < highPriorityThreshold:
			od.Priority = models.PriorityHigh
		case od.CombinedScore < mediumPriorityThreshold:
			od.Priority = models.PriorityMedium
		default:
			od.Priority = models.PriorityLow
		}
	}

	return od
}

// generateInsights runs the configured generator and falls back to the
// secondary generator when the primary fails
func (e *Engine) generateInsights(ctx context.Context, diagnosis *models.Diagnosis) (*models.Insights, error) {
	insights, err := e.generator.Generate(ctx, diagnosis)
	if err == nil {
		return insights, nil
	}

	if e.fallback == nil {
		return nil, fmt.Errorf("insight generation failed: %w", err)
	}

	e.logger.Warn().
		Str("generator", e.generator.Name()).
		Str("fallback", e.fallback.Name()).
		Err(err).
		Msg("Insight generator failed, using fallback")

	insights, err = e.fallback.Generate(ctx, diagnosis)
	if err != nil {
		return nil, fmt.Errorf("fallback insight generation failed: %w", err)
	}
	return insights, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func sortEntityTypes(types []models.EntityType) {
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
}
