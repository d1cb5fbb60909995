package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
	"github.com/ternarybob/concordia/internal/services/alignment"
	"github.com/ternarybob/concordia/internal/services/entities"
	"github.com/ternarybob/concordia/internal/services/fusion"
	"github.com/ternarybob/concordia/internal/services/insights"
)

// memoryStorage is an in-memory ResultStorage for pipeline tests
type memoryStorage struct {
	results map[string]*models.FinalSynchronizationResult
	cache   map[string]string
	saves   int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		results: make(map[string]*models.FinalSynchronizationResult),
		cache:   make(map[string]string),
	}
}

func (m *memoryStorage) SaveResult(result *models.FinalSynchronizationResult) error {
	m.results[result.RunID] = result
	m.saves++
	return nil
}

func (m *memoryStorage) GetResult(runID string) (*models.FinalSynchronizationResult, error) {
	result, ok := m.results[runID]
	if !ok {
		return nil, interfaces.ErrResultNotFound
	}
	return result, nil
}

func (m *memoryStorage) GetLatestResult() (*models.FinalSynchronizationResult, error) {
	for _, result := range m.results {
		return result, nil
	}
	return nil, interfaces.ErrResultNotFound
}

func (m *memoryStorage) ListResults(_ int) ([]*models.FinalSynchronizationResult, error) {
	var results []*models.FinalSynchronizationResult
	for _, result := range m.results {
		results = append(results, result)
	}
	return results, nil
}

func (m *memoryStorage) GetCachedRunID(key string) (string, error) {
	runID, ok := m.cache[key]
	if !ok {
		return "", interfaces.ErrResultNotFound
	}
	return runID, nil
}

func (m *memoryStorage) PutCacheEntry(key, runID string) error {
	m.cache[key] = runID
	return nil
}

// fixedEmbedder embeds any text into a deterministic vector derived
// from its words, so related texts land close together
type fixedEmbedder struct {
	failAll bool
}

func (f *fixedEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if f.failAll {
		return nil, fmt.Errorf("provider down")
	}
	vector := make([]float32, 8)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		var sum int
		for _, r := range word {
			sum += int(r)
		}
		vector[sum%8] += 1
	}
	return vector, nil
}

func (f *fixedEmbedder) Dimension() int                     { return 8 }
func (f *fixedEmbedder) IsAvailable(_ context.Context) bool { return !f.failAll }

func testConfig() *common.AnalysisConfig {
	return &common.AnalysisConfig{
		EmbeddingWeight:        0.60,
		EntityWeight:           0.40,
		StrongSupportThreshold: 75,
		FuzzyThreshold:         85,
		SimilarityThreshold:    0.70,
		TopK:                   5,
		MaxConcurrency:         2,
	}
}

func newTestPipeline(t *testing.T, embedder interfaces.EmbeddingService, storage interfaces.ResultStorage) *Pipeline {
	t.Helper()
	logger := common.GetLogger()
	config := testConfig()

	engine, err := fusion.NewEngine(config, insights.NewRuleBasedGenerator(logger), nil, logger)
	if err != nil {
		t.Fatalf("Failed to create fusion engine: %v", err)
	}

	return NewPipeline(
		entities.NewExtractor(nil, logger),
		entities.NewMatcher(config, logger),
		alignment.NewAligner(embedder, config, logger),
		engine,
		storage,
		config,
		logger,
	)
}

func testDocuments() (*models.StructuredDocument, *models.StructuredDocument) {
	strategic := &models.StructuredDocument{
		ID: "doc_s", Title: "Strategic Plan 2026", DocumentType: models.DocumentTypeStrategic,
		Sections: []models.Section{{
			ID: "sec_1", Title: "Financial Targets",
			Content: "Achieve 15% ROE by fiscal 2026",
			Objectives: []models.Objective{{
				ID: "obj_1", Title: "Achieve 15% ROE by fiscal 2026",
			}},
		}},
	}
	action := &models.StructuredDocument{
		ID: "doc_a", Title: "Action Plan 2026", DocumentType: models.DocumentTypeAction,
		Sections: []models.Section{{
			ID: "sec_a1", Title: "Finance Actions",
			Content: "Deliver 15% ROE by 2026 through margin work",
			Actions: []models.ActionItem{{
				ID: "act_1", Title: "Deliver 15% ROE by fiscal 2026",
			}},
		}},
	}
	return strategic, action
}

func TestPipeline_Run(t *testing.T) {
	t.Run("Full run produces and persists a result", func(t *testing.T) {
		storage := newMemoryStorage()
		p := newTestPipeline(t, &fixedEmbedder{}, storage)
		strategic, action := testDocuments()

		var stages []models.ProgressStage
		result, err := p.Run(context.Background(), strategic, action, RunOptions{
			Progress: func(event models.ProgressEvent) {
				stages = append(stages, event.Stage)
			},
		})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if result.RunID == "" {
			t.Error("Expected a run id")
		}
		if result.OverallScore < 0 || result.OverallScore > 100 {
			t.Errorf("Overall score out of bounds: %f", result.OverallScore)
		}
		if storage.saves != 1 {
			t.Errorf("Expected 1 persisted result, got %d", storage.saves)
		}
		if len(stages) == 0 {
			t.Error("Expected progress events")
		}
	})

	t.Run("Progress callbacks never overlap", func(t *testing.T) {
		storage := newMemoryStorage()
		p := newTestPipeline(t, &fixedEmbedder{}, storage)
		strategic, action := testDocuments()

		// The callback deliberately does no locking of its own: the
		// pipeline serializes invocations across stage goroutines
		var inFlight, overlapped bool
		var stages []models.ProgressStage
		_, err := p.Run(context.Background(), strategic, action, RunOptions{
			Progress: func(event models.ProgressEvent) {
				if inFlight {
					overlapped = true
				}
				inFlight = true
				time.Sleep(time.Millisecond)
				stages = append(stages, event.Stage)
				inFlight = false
			},
		})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if overlapped {
			t.Error("Progress callback invocations must not overlap")
		}
		if len(stages) < 5 {
			t.Errorf("Expected all stage events to be delivered, got %d", len(stages))
		}
	})

	t.Run("Unchanged inputs are served from cache", func(t *testing.T) {
		storage := newMemoryStorage()
		p := newTestPipeline(t, &fixedEmbedder{}, storage)
		strategic, action := testDocuments()

		first, err := p.Run(context.Background(), strategic, action, RunOptions{})
		if err != nil {
			t.Fatalf("First run failed: %v", err)
		}

		second, err := p.Run(context.Background(), strategic, action, RunOptions{})
		if err != nil {
			t.Fatalf("Second run failed: %v", err)
		}

		if second.RunID != first.RunID {
			t.Errorf("Expected cached result %s, got %s", first.RunID, second.RunID)
		}
		if storage.saves != 1 {
			t.Errorf("Expected a single persisted result, got %d", storage.saves)
		}
	})

	t.Run("SkipCache forces a fresh run", func(t *testing.T) {
		storage := newMemoryStorage()
		p := newTestPipeline(t, &fixedEmbedder{}, storage)
		strategic, action := testDocuments()

		first, err := p.Run(context.Background(), strategic, action, RunOptions{})
		if err != nil {
			t.Fatalf("First run failed: %v", err)
		}

		second, err := p.Run(context.Background(), strategic, action, RunOptions{SkipCache: true})
		if err != nil {
			t.Fatalf("Second run failed: %v", err)
		}

		if second.RunID == first.RunID {
			t.Error("Expected a new run id with SkipCache")
		}
		if storage.saves != 2 {
			t.Errorf("Expected 2 persisted results, got %d", storage.saves)
		}
	})

	t.Run("Changed input misses the cache", func(t *testing.T) {
		storage := newMemoryStorage()
		p := newTestPipeline(t, &fixedEmbedder{}, storage)
		strategic, action := testDocuments()

		if _, err := p.Run(context.Background(), strategic, action, RunOptions{}); err != nil {
			t.Fatalf("First run failed: %v", err)
		}

		action.Sections[0].Actions[0].Title = "Deliver 12% ROE by fiscal 2027"
		if _, err := p.Run(context.Background(), strategic, action, RunOptions{}); err != nil {
			t.Fatalf("Second run failed: %v", err)
		}

		if storage.saves != 2 {
			t.Errorf("Expected changed input to trigger a new run, got %d saves", storage.saves)
		}
	})

	t.Run("Failed run persists nothing", func(t *testing.T) {
		storage := newMemoryStorage()
		p := newTestPipeline(t, &fixedEmbedder{failAll: true}, storage)
		strategic, action := testDocuments()

		if _, err := p.Run(context.Background(), strategic, action, RunOptions{}); err == nil {
			t.Fatal("Expected run to fail when no embedding succeeds")
		}
		if storage.saves != 0 {
			t.Errorf("Failed run must not persist, got %d saves", storage.saves)
		}
	})

	t.Run("Nil documents are rejected", func(t *testing.T) {
		p := newTestPipeline(t, &fixedEmbedder{}, newMemoryStorage())
		_, action := testDocuments()

		if _, err := p.Run(context.Background(), nil, action, RunOptions{}); err != common.ErrInputNotFound {
			t.Errorf("Expected ErrInputNotFound, got %v", err)
		}
	})
}

func TestPipeline_Fingerprint(t *testing.T) {
	p := newTestPipeline(t, &fixedEmbedder{}, newMemoryStorage())
	strategic, action := testDocuments()

	first, err := p.fingerprint(strategic, action)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	second, err := p.fingerprint(strategic, action)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if first != second {
		t.Error("Identical inputs must produce identical fingerprints")
	}

	action.Sections[0].Content = "changed"
	changed, err := p.fingerprint(strategic, action)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if changed == first {
		t.Error("Changed input must change the fingerprint")
	}
}
