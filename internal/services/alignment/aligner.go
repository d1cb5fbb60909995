// Package alignment ranks action items against strategic objectives by
// embedding similarity.
package alignment

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
	"github.com/ternarybob/concordia/internal/services/embeddings"
)

// Aligner computes semantic alignment between a strategic plan and an
// action plan. Action items are embedded once into a vector index, then
// objectives are aligned concurrently against it.
type Aligner struct {
	embedder interfaces.EmbeddingService
	config   *common.AnalysisConfig
	logger   arbor.ILogger
}

// NewAligner creates a semantic aligner
func NewAligner(embedder interfaces.EmbeddingService, config *common.AnalysisConfig, logger arbor.ILogger) *Aligner {
	return &Aligner{
		embedder: embedder,
		config:   config,
		logger:   logger,
	}
}

// Align embeds every action item once, then ranks the top-k actions for
// each objective. An embedding failure on a single objective degrades
// that objective to a zero score instead of failing the run; a failure
// to build any index at all is fatal.
func (a *Aligner) Align(ctx context.Context, strategic, action *models.StructuredDocument) (*models.EmbeddingAnalysisResult, error) {
	if strategic == nil || action == nil {
		return nil, common.ErrInputNotFound
	}

	objectives := collectObjectives(strategic)
	actions := action.AllActions()

	result := &models.EmbeddingAnalysisResult{
		ObjectiveAlignments: make([]models.ObjectiveAlignment, len(objectives)),
	}
	if len(objectives) == 0 {
		a.logger.Warn().Msg("Strategic document has no objectives, embedding score is 0")
		return result, nil
	}

	index, err := a.buildActionIndex(ctx, actions)
	if err != nil {
		return nil, err
	}

	a.alignObjectives(ctx, objectives, index, result.ObjectiveAlignments)

	var scoreSum float64
	for _, alignment := range result.ObjectiveAlignments {
		scoreSum += alignment.BestMatchScore
	}
	result.EmbeddingScore = scoreSum / float64(len(objectives)) * 100

	a.logger.Info().
		Int("objectives", len(objectives)).
		Int("actions", index.Len()).
		Float64("embedding_score", result.EmbeddingScore).
		Msg("Semantic alignment complete")

	return result, nil
}

type sectionObjective struct {
	objective models.Objective
	sectionID string
}

func collectObjectives(doc *models.StructuredDocument) []sectionObjective {
	var objectives []sectionObjective
	for _, section := range doc.Sections {
		for _, objective := range section.Objectives {
			objectives = append(objectives, sectionObjective{
				objective: objective,
				sectionID: section.ID,
			})
		}
	}
	return objectives
}

// buildActionIndex embeds all action items into a fresh vector index.
// A single action that fails to embed is skipped with a warning; an
// index that ends up empty while actions exist aborts the run.
func (a *Aligner) buildActionIndex(ctx context.Context, actions []models.ActionItem) (interfaces.VectorIndex, error) {
	index := embeddings.NewMemoryIndex()

	for _, item := range actions {
		vector, err := a.embedder.GenerateEmbedding(ctx, item.Text())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn().
				Str("action_id", item.ID).
				Err(err).
				Msg("Failed to embed action item, excluding from index")
			continue
		}
		if err := index.Upsert(item.ID, item.Title, vector); err != nil {
			return nil, fmt.Errorf("failed to index action %s: %w", item.ID, err)
		}
	}

	if len(actions) > 0 && index.Len() == 0 {
		return nil, &common.ExternalServiceError{
			Service: "embeddings",
			Err:     fmt.Errorf("no action item could be embedded"),
		}
	}

	return index, nil
}

// alignObjectives fans objectives out over a bounded worker pool. Each
// worker writes to its own slot, so the output order is the document
// order of the objectives regardless of scheduling.
func (a *Aligner) alignObjectives(ctx context.Context, objectives []sectionObjective, index interfaces.VectorIndex, out []models.ObjectiveAlignment) {
	concurrency := a.config.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, so := range objectives {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(slot int, so sectionObjective) {
			defer wg.Done()
			defer func() { <-semaphore }()
			out[slot] = a.alignObjective(ctx, so, index)
		}(i, so)
	}

	wg.Wait()
}

func (a *Aligner) alignObjective(ctx context.Context, so sectionObjective, index interfaces.VectorIndex) models.ObjectiveAlignment {
	alignment := models.ObjectiveAlignment{
		ObjectiveID:    so.objective.ID,
		ObjectiveTitle: so.objective.Title,
		SectionID:      so.sectionID,
	}

	if index.Len() == 0 {
		return alignment
	}

	vector, err := a.embedder.GenerateEmbedding(ctx, so.objective.Text())
	if err != nil {
		a.logger.Warn().
			Str("objective_id", so.objective.ID).
			Err(err).
			Msg("Failed to embed objective, degrading to zero score")
		alignment.DegradedReason = fmt.Sprintf("embedding failed: %v", err)
		return alignment
	}

	hits, err := index.Query(vector, a.config.TopK)
	if err != nil {
		a.logger.Warn().
			Str("objective_id", so.objective.ID).
			Err(err).
			Msg("Vector index query failed, degrading to zero score")
		alignment.DegradedReason = fmt.Sprintf("index query failed: %v", err)
		return alignment
	}

	for _, hit := range hits {
		alignment.TopMatches = append(alignment.TopMatches, models.ActionMatch{
			ActionID:    hit.ID,
			ActionTitle: hit.Title,
			Similarity:  hit.Similarity,
		})
	}

	// Only a candidate above the similarity bar counts as support
	if len(hits) > 0 && hits[0].Similarity >= a.config.SimilarityThreshold {
		alignment.BestMatchScore = hits[0].Similarity
	}

	return alignment
}
