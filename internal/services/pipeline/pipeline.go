// Package pipeline orchestrates a full synchronization run: entity
// matching and semantic alignment in parallel, fusion, and persistence.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
	"github.com/ternarybob/concordia/internal/services/alignment"
	"github.com/ternarybob/concordia/internal/services/entities"
	"github.com/ternarybob/concordia/internal/services/fusion"
)

// Pipeline runs the synchronization analysis end to end
type Pipeline struct {
	extractor *entities.Extractor
	matcher   *entities.Matcher
	aligner   *alignment.Aligner
	engine    *fusion.Engine
	storage   interfaces.ResultStorage
	config    *common.AnalysisConfig
	logger    arbor.ILogger
}

// RunOptions controls a single pipeline run
type RunOptions struct {
	// Progress receives stage notifications; nil disables reporting.
	// Invocations are serialized, so the callback needs no locking.
	Progress models.ProgressFunc

	// SkipCache forces a fresh analysis even when the inputs are unchanged
	SkipCache bool
}

// NewPipeline creates a synchronization pipeline
func NewPipeline(extractor *entities.Extractor, matcher *entities.Matcher, aligner *alignment.Aligner, engine *fusion.Engine, storage interfaces.ResultStorage, config *common.AnalysisConfig, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		matcher:   matcher,
		aligner:   aligner,
		engine:    engine,
		storage:   storage,
		config:    config,
		logger:    logger,
	}
}

// Run executes a full synchronization analysis. Unchanged inputs are
// served from the content-addressed cache. The result is persisted only
// after the whole run succeeds: a failed run writes nothing.
func (p *Pipeline) Run(ctx context.Context, strategic, action *models.StructuredDocument, opts RunOptions) (*models.FinalSynchronizationResult, error) {
	if strategic == nil || action == nil {
		return nil, common.ErrInputNotFound
	}

	fingerprint, err := p.fingerprint(strategic, action)
	if err != nil {
		return nil, err
	}

	if !opts.SkipCache {
		if cached := p.lookupCache(fingerprint); cached != nil {
			p.logger.Info().
				Str("run_id", cached.RunID).
				Msg("Inputs unchanged, serving cached result")
			return cached, nil
		}
	}

	// Stage goroutines report progress concurrently; the callback is
	// serialized so callers need no locking of their own
	var progressMu sync.Mutex
	notify := func(event models.ProgressEvent) {
		if opts.Progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		opts.Progress(event)
	}

	// Entity matching and semantic alignment are independent signals
	// and run in parallel
	var (
		wg           sync.WaitGroup
		entityResult *models.EntityAnalysisResult
		embedResult  *models.EmbeddingAnalysisResult
		alignErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		notify(models.ProgressEvent{Stage: models.StageExtract, Message: "Extracting entities"})
		strategicEntities := p.extractor.Extract(ctx, strategic)
		actionEntities := p.extractor.Extract(ctx, action)
		notify(models.ProgressEvent{Stage: models.StageMatch, Message: "Matching entities",
			Total: len(strategicEntities)})
		entityResult = p.matcher.Match(strategicEntities, actionEntities)
	}()
	go func() {
		defer wg.Done()
		notify(models.ProgressEvent{Stage: models.StageAlign, Message: "Aligning objectives semantically"})
		embedResult, alignErr = p.aligner.Align(ctx, strategic, action)
	}()
	wg.Wait()

	if alignErr != nil {
		return nil, fmt.Errorf("semantic alignment failed: %w", alignErr)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	notify(models.ProgressEvent{Stage: models.StageFuse, Message: "Fusing analysis signals"})
	result, err := p.engine.Combine(ctx, embedResult, entityResult, strategic, action)
	if err != nil {
		return nil, fmt.Errorf("fusion failed: %w", err)
	}

	result.RunID = common.NewRunID()

	if p.storage != nil {
		notify(models.ProgressEvent{Stage: models.StagePersist, Message: "Persisting result"})
		if err := p.storage.SaveResult(result); err != nil {
			return nil, fmt.Errorf("failed to persist result: %w", err)
		}
		if err := p.storage.PutCacheEntry(fingerprint, result.RunID); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to record cache entry")
		}
	}

	p.logger.Info().
		Str("run_id", result.RunID).
		Float64("overall_score", result.OverallScore).
		Msg("Synchronization run complete")

	return result, nil
}

// fingerprint derives the content-addressed cache key from both
// documents and the analysis knobs that shape the result. Any change to
// either invalidates the cache.
func (p *Pipeline) fingerprint(strategic, action *models.StructuredDocument) (string, error) {
	payload := struct {
		Strategic *models.StructuredDocument `json:"strategic"`
		Action    *models.StructuredDocument `json:"action"`
		Config    *common.AnalysisConfig     `json:"config"`
	}{strategic, action, p.config}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint inputs: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (p *Pipeline) lookupCache(fingerprint string) *models.FinalSynchronizationResult {
	if p.storage == nil {
		return nil
	}

	runID, err := p.storage.GetCachedRunID(fingerprint)
	if err != nil {
		return nil
	}

	result, err := p.storage.GetResult(runID)
	if err != nil {
		p.logger.Warn().
			Str("run_id", runID).
			Err(err).
			Msg("Cache entry points at missing result, re-running")
		return nil
	}

	return result
}
