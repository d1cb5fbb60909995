package interfaces

import (
	"context"

	"github.com/ternarybob/concordia/internal/models"
)

// InsightGenerator turns a numeric diagnosis into natural-language
// strengths, weaknesses, and recommendations. Implementations are
// polymorphic over {rule_based, llm_based}: both populate the identical
// schema from the same diagnosis, and neither may alter the computed
// scores or recommendation priorities.
type InsightGenerator interface {
	Generate(ctx context.Context, diagnosis *models.Diagnosis) (*models.Insights, error)

	// Name identifies the generator implementation
	Name() string
}
