package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
)

// storedResult wraps a final result with its storage timestamp
type storedResult struct {
	RunID     string `badgerhold:"key"`
	CreatedAt time.Time
	Result    models.FinalSynchronizationResult
}

// cacheEntry maps an input fingerprint to the run that produced it
type cacheEntry struct {
	Key       string `badgerhold:"key"`
	RunID     string
	CreatedAt time.Time
}

// ResultStorage implements the ResultStorage interface for Badger
type ResultStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResultStorage creates a new ResultStorage instance
func NewResultStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ResultStorage {
	return &ResultStorage{
		db:     db,
		logger: logger,
	}
}

// SaveResult persists a final synchronization result
func (s *ResultStorage) SaveResult(result *models.FinalSynchronizationResult) error {
	if result == nil || result.RunID == "" {
		return fmt.Errorf("result must have a run id")
	}

	record := storedResult{
		RunID:     result.RunID,
		CreatedAt: time.Now(),
		Result:    *result,
	}

	if err := s.db.Store().Upsert(result.RunID, &record); err != nil {
		return fmt.Errorf("failed to save result %s: %w", result.RunID, err)
	}

	s.logger.Info().
		Str("run_id", result.RunID).
		Float64("overall_score", result.OverallScore).
		Msg("Saved synchronization result")

	return nil
}

// GetResult retrieves a result by run ID
func (s *ResultStorage) GetResult(runID string) (*models.FinalSynchronizationResult, error) {
	var record storedResult
	err := s.db.Store().Get(runID, &record)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result %s: %w", runID, err)
	}

	return &record.Result, nil
}

// GetLatestResult retrieves the most recently saved result
func (s *ResultStorage) GetLatestResult() (*models.FinalSynchronizationResult, error) {
	results, err := s.ListResults(1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, interfaces.ErrResultNotFound
	}
	return results[0], nil
}

// ListResults returns up to limit results, newest first
func (s *ResultStorage) ListResults(limit int) ([]*models.FinalSynchronizationResult, error) {
	if limit < 1 {
		limit = 1
	}

	var records []storedResult
	query := badgerhold.Where("RunID").Ne("").SortBy("CreatedAt").Reverse().Limit(limit)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	results := make([]*models.FinalSynchronizationResult, 0, len(records))
	for i := range records {
		results = append(results, &records[i].Result)
	}

	return results, nil
}

// GetCachedRunID resolves a content-addressed cache key to a run ID
func (s *ResultStorage) GetCachedRunID(key string) (string, error) {
	var entry cacheEntry
	err := s.db.Store().Get(key, &entry)
	if err == badgerhold.ErrNotFound {
		return "", interfaces.ErrResultNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cache entry: %w", err)
	}
	return entry.RunID, nil
}

// PutCacheEntry records that a cache key resolved to a run
func (s *ResultStorage) PutCacheEntry(key, runID string) error {
	entry := cacheEntry{
		Key:       key,
		RunID:     runID,
		CreatedAt: time.Now(),
	}
	if err := s.db.Store().Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}
