// Package embeddings provides embedding generation with a per-run cache
// so each distinct text is sent to the provider at most once, plus an
// in-memory cosine vector index for nearest-neighbor retrieval.
package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/interfaces"
)

// Service implements EmbeddingService on top of the LLM service
type Service struct {
	llmService interfaces.LLMService
	cache      *gocache.Cache
	limiter    *rate.Limiter
	dimension  int
	logger     arbor.ILogger
}

// NewService creates a new embedding service. rateLimit is the minimum
// interval between provider calls; cacheTTL bounds how long a vector
// stays reusable within a run.
func NewService(llmService interfaces.LLMService, config *common.EmbeddingConfig, logger arbor.ILogger) (*Service, error) {
	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, &common.ConfigurationError{Field: "embedding.rate_limit", Reason: err.Error()}
	}
	ttl, err := time.ParseDuration(config.CacheTTL)
	if err != nil {
		return nil, &common.ConfigurationError{Field: "embedding.cache_ttl", Reason: err.Error()}
	}

	return &Service{
		llmService: llmService,
		cache:      gocache.New(ttl, 2*ttl),
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		dimension:  config.Dimension,
		logger:     logger,
	}, nil
}

// GenerateEmbedding creates a vector embedding for text, serving
// repeated texts from the per-run cache
func (s *Service) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	key := cacheKey(text)
	if cached, found := s.cache.Get(key); found {
		return cached.([]float32), nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	embedding, err := s.llmService.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(embedding) == 0 {
		return nil, fmt.Errorf("provider returned empty embedding")
	}

	s.cache.Set(key, embedding, gocache.DefaultExpiration)

	s.logger.Debug().
		Int("embedding_dim", len(embedding)).
		Int("text_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Generated embedding")

	return embedding, nil
}

// Dimension returns the embedding dimension
func (s *Service) Dimension() int {
	return s.dimension
}

// IsAvailable checks if the embedding provider is reachable
func (s *Service) IsAvailable(ctx context.Context) bool {
	if s.llmService == nil {
		return false
	}

	if err := s.llmService.HealthCheck(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("Embedding provider not available")
		return false
	}

	return true
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Ensure Service implements the EmbeddingService interface
var _ interfaces.EmbeddingService = (*Service)(nil)
