package badger

import (
	"testing"
	"time"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
)

func newTestStorage(t *testing.T) interfaces.ResultStorage {
	t.Helper()

	db, err := NewBadgerDB(common.GetLogger(), &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewResultStorage(db, common.GetLogger())
}

func sampleResult(runID string) *models.FinalSynchronizationResult {
	return &models.FinalSynchronizationResult{
		RunID:          runID,
		AssessmentDate: "2026-01-15",
		StrategicPlan:  "Strategic Plan 2026",
		ActionPlan:     "Action Plan 2026",
		OverallScore:   82.5,
		EmbeddingScore: 80,
		EntityScore:    86.25,
		Summary: models.SynchronizationSummary{
			TotalObjectives:        4,
			MatchedEntities:        8,
			TotalStrategicEntities: 10,
		},
	}
}

func TestResultStorage_SaveAndGet(t *testing.T) {
	storage := newTestStorage(t)

	result := sampleResult("run_1")
	if err := storage.SaveResult(result); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	loaded, err := storage.GetResult("run_1")
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}

	if loaded.RunID != "run_1" {
		t.Errorf("Expected run_1, got %s", loaded.RunID)
	}
	if loaded.OverallScore != 82.5 {
		t.Errorf("Expected score 82.5, got %f", loaded.OverallScore)
	}
	if loaded.Summary.MatchedEntities != 8 {
		t.Errorf("Expected 8 matched entities, got %d", loaded.Summary.MatchedEntities)
	}
}

func TestResultStorage_GetMissing(t *testing.T) {
	storage := newTestStorage(t)

	if _, err := storage.GetResult("run_missing"); err != interfaces.ErrResultNotFound {
		t.Errorf("Expected ErrResultNotFound, got %v", err)
	}
	if _, err := storage.GetLatestResult(); err != interfaces.ErrResultNotFound {
		t.Errorf("Expected ErrResultNotFound for empty store, got %v", err)
	}
}

func TestResultStorage_LatestAndList(t *testing.T) {
	storage := newTestStorage(t)

	for _, runID := range []string{"run_1", "run_2", "run_3"} {
		if err := storage.SaveResult(sampleResult(runID)); err != nil {
			t.Fatalf("SaveResult failed: %v", err)
		}
		// CreatedAt granularity must separate the records
		time.Sleep(5 * time.Millisecond)
	}

	latest, err := storage.GetLatestResult()
	if err != nil {
		t.Fatalf("GetLatestResult failed: %v", err)
	}
	if latest.RunID != "run_3" {
		t.Errorf("Expected run_3 as latest, got %s", latest.RunID)
	}

	results, err := storage.ListResults(2)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].RunID != "run_3" || results[1].RunID != "run_2" {
		t.Errorf("Expected newest first, got %s then %s", results[0].RunID, results[1].RunID)
	}
}

func TestResultStorage_Cache(t *testing.T) {
	storage := newTestStorage(t)

	if _, err := storage.GetCachedRunID("fingerprint_1"); err != interfaces.ErrResultNotFound {
		t.Errorf("Expected ErrResultNotFound, got %v", err)
	}

	if err := storage.PutCacheEntry("fingerprint_1", "run_1"); err != nil {
		t.Fatalf("PutCacheEntry failed: %v", err)
	}

	runID, err := storage.GetCachedRunID("fingerprint_1")
	if err != nil {
		t.Fatalf("GetCachedRunID failed: %v", err)
	}
	if runID != "run_1" {
		t.Errorf("Expected run_1, got %s", runID)
	}
}
