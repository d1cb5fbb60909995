package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/concordia/internal/models"
)

// ErrKeyNotFound is returned when a key/value pair does not exist
var ErrKeyNotFound = errors.New("key not found")

// ErrResultNotFound is returned when no synchronization result exists
var ErrResultNotFound = errors.New("result not found")

// KeyValuePair represents a stored key/value entry (API keys, settings)
type KeyValuePair struct {
	Key         string    `json:"key" badgerhold:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KeyValueStorage stores configuration values and API keys
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value, description string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}

// ResultStorage persists synchronization results and the
// content-addressed cache that maps input fingerprints to runs
type ResultStorage interface {
	// SaveResult persists a final result. The result is immutable once
	// written: SaveResult is the only write path.
	SaveResult(result *models.FinalSynchronizationResult) error

	// GetResult retrieves a result by run ID
	GetResult(runID string) (*models.FinalSynchronizationResult, error)

	// GetLatestResult retrieves the most recently saved result
	GetLatestResult() (*models.FinalSynchronizationResult, error)

	// ListResults returns up to limit results, newest first
	ListResults(limit int) ([]*models.FinalSynchronizationResult, error)

	// GetCachedRunID resolves a content-addressed cache key to a run ID
	GetCachedRunID(key string) (string, error)

	// PutCacheEntry records that a cache key resolved to a run
	PutCacheEntry(key, runID string) error
}
