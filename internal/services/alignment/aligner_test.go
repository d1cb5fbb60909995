package alignment

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/models"
)

// stubEmbedder returns fixed vectors per text so similarity outcomes
// are fully controlled by the test
type stubEmbedder struct {
	vectors       map[string][]float32
	failSubstring string
}

func (s *stubEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if s.failSubstring != "" && strings.Contains(text, s.failSubstring) {
		return nil, fmt.Errorf("embedding provider unavailable")
	}
	if vector, ok := s.vectors[text]; ok {
		return vector, nil
	}
	return []float32{0, 0, 0.001}, nil
}

func (s *stubEmbedder) Dimension() int                      { return 3 }
func (s *stubEmbedder) IsAvailable(_ context.Context) bool  { return true }

func testAnalysisConfig() *common.AnalysisConfig {
	return &common.AnalysisConfig{
		EmbeddingWeight:        0.60,
		EntityWeight:           0.40,
		StrongSupportThreshold: 75,
		FuzzyThreshold:         85,
		SimilarityThreshold:    0.70,
		TopK:                   5,
		MaxConcurrency:         4,
	}
}

func strategicDoc(objectiveTitles ...string) *models.StructuredDocument {
	section := models.Section{ID: "sec_s1", Title: "Objectives"}
	for i, title := range objectiveTitles {
		section.Objectives = append(section.Objectives, models.Objective{
			ID:    fmt.Sprintf("obj_%d", i+1),
			Title: title,
		})
	}
	return &models.StructuredDocument{
		ID:           "doc_strategic",
		Title:        "Strategic Plan",
		DocumentType: models.DocumentTypeStrategic,
		Sections:     []models.Section{section},
	}
}

func actionDoc(actionTitles ...string) *models.StructuredDocument {
	section := models.Section{ID: "sec_a1", Title: "Actions"}
	for i, title := range actionTitles {
		section.Actions = append(section.Actions, models.ActionItem{
			ID:    fmt.Sprintf("act_%d", i+1),
			Title: title,
		})
	}
	return &models.StructuredDocument{
		ID:           "doc_action",
		Title:        "Action Plan",
		DocumentType: models.DocumentTypeAction,
		Sections:     []models.Section{section},
	}
}

func TestAligner_Align(t *testing.T) {
	t.Run("Related action ranks first above threshold", func(t *testing.T) {
		embedder := &stubEmbedder{vectors: map[string][]float32{
			"Grow digital revenue": {1, 0, 0},
			"Launch online store":  {0.95, 0.05, 0},
			"Hire a gardener":      {0, 1, 0},
		}}
		aligner := NewAligner(embedder, testAnalysisConfig(), common.GetLogger())

		result, err := aligner.Align(context.Background(),
			strategicDoc("Grow digital revenue"),
			actionDoc("Launch online store", "Hire a gardener"))
		if err != nil {
			t.Fatalf("Align failed: %v", err)
		}

		if len(result.ObjectiveAlignments) != 1 {
			t.Fatalf("Expected 1 alignment, got %d", len(result.ObjectiveAlignments))
		}
		alignment := result.ObjectiveAlignments[0]
		if len(alignment.TopMatches) == 0 {
			t.Fatal("Expected top matches")
		}
		if alignment.TopMatches[0].ActionID != "act_1" {
			t.Errorf("Expected act_1 to rank first, got %s", alignment.TopMatches[0].ActionID)
		}
		if alignment.BestMatchScore < 0.70 {
			t.Errorf("Expected best match above threshold, got %f", alignment.BestMatchScore)
		}
	})

	t.Run("No candidate above threshold yields zero best score", func(t *testing.T) {
		embedder := &stubEmbedder{vectors: map[string][]float32{
			"Improve employee wellbeing": {0, 0, 1},
			"Launch online store":        {1, 0, 0},
		}}
		aligner := NewAligner(embedder, testAnalysisConfig(), common.GetLogger())

		result, err := aligner.Align(context.Background(),
			strategicDoc("Improve employee wellbeing"),
			actionDoc("Launch online store"))
		if err != nil {
			t.Fatalf("Align failed: %v", err)
		}

		alignment := result.ObjectiveAlignments[0]
		if alignment.BestMatchScore != 0 {
			t.Errorf("Expected best match score 0, got %f", alignment.BestMatchScore)
		}
		// The closest candidates stay visible even when below the bar
		if len(alignment.TopMatches) == 0 {
			t.Error("Expected top matches to remain visible")
		}
		if result.EmbeddingScore != 0 {
			t.Errorf("Expected embedding score 0, got %f", result.EmbeddingScore)
		}
	})

	t.Run("Objective embedding failure degrades that objective only", func(t *testing.T) {
		embedder := &stubEmbedder{
			vectors: map[string][]float32{
				"Grow digital revenue": {1, 0, 0},
				"Launch online store":  {1, 0, 0},
			},
			failSubstring: "wellbeing",
		}
		aligner := NewAligner(embedder, testAnalysisConfig(), common.GetLogger())

		result, err := aligner.Align(context.Background(),
			strategicDoc("Grow digital revenue", "Improve employee wellbeing"),
			actionDoc("Launch online store"))
		if err != nil {
			t.Fatalf("Align failed: %v", err)
		}

		if result.ObjectiveAlignments[0].BestMatchScore < 0.99 {
			t.Errorf("Healthy objective should align, got %f", result.ObjectiveAlignments[0].BestMatchScore)
		}
		degraded := result.ObjectiveAlignments[1]
		if degraded.BestMatchScore != 0 {
			t.Errorf("Degraded objective must score 0, got %f", degraded.BestMatchScore)
		}
		if degraded.DegradedReason == "" {
			t.Error("Degraded objective must carry a reason")
		}
	})

	t.Run("Embedding score is the mean of best scores", func(t *testing.T) {
		embedder := &stubEmbedder{vectors: map[string][]float32{
			"Objective one":       {1, 0, 0},
			"Objective two":       {0, 0, 1},
			"Action for one":      {1, 0, 0},
		}}
		aligner := NewAligner(embedder, testAnalysisConfig(), common.GetLogger())

		result, err := aligner.Align(context.Background(),
			strategicDoc("Objective one", "Objective two"),
			actionDoc("Action for one"))
		if err != nil {
			t.Fatalf("Align failed: %v", err)
		}

		// Objective one scores 1.0, objective two scores 0 -> mean 0.5 -> 50
		if result.EmbeddingScore < 49.9 || result.EmbeddingScore > 50.1 {
			t.Errorf("Expected embedding score ~50, got %f", result.EmbeddingScore)
		}
	})

	t.Run("Output order follows document order", func(t *testing.T) {
		embedder := &stubEmbedder{vectors: map[string][]float32{}}
		aligner := NewAligner(embedder, testAnalysisConfig(), common.GetLogger())

		titles := make([]string, 12)
		for i := range titles {
			titles[i] = fmt.Sprintf("Objective number %d", i+1)
		}

		result, err := aligner.Align(context.Background(),
			strategicDoc(titles...),
			actionDoc("Some action"))
		if err != nil {
			t.Fatalf("Align failed: %v", err)
		}

		if len(result.ObjectiveAlignments) != len(titles) {
			t.Fatalf("Expected %d alignments, got %d", len(titles), len(result.ObjectiveAlignments))
		}
		for i, alignment := range result.ObjectiveAlignments {
			if alignment.ObjectiveTitle != titles[i] {
				t.Errorf("Alignment %d out of order: %s", i, alignment.ObjectiveTitle)
			}
		}
	})

	t.Run("Nil documents are rejected", func(t *testing.T) {
		aligner := NewAligner(&stubEmbedder{}, testAnalysisConfig(), common.GetLogger())

		if _, err := aligner.Align(context.Background(), nil, actionDoc("A")); err != common.ErrInputNotFound {
			t.Errorf("Expected ErrInputNotFound, got %v", err)
		}
	})

	t.Run("No objectives yields empty result", func(t *testing.T) {
		aligner := NewAligner(&stubEmbedder{}, testAnalysisConfig(), common.GetLogger())

		strategic := &models.StructuredDocument{
			ID:           "doc_strategic",
			Title:        "Strategic Plan",
			DocumentType: models.DocumentTypeStrategic,
			Sections:     []models.Section{{ID: "sec_1", Title: "Empty"}},
		}

		result, err := aligner.Align(context.Background(), strategic, actionDoc("A"))
		if err != nil {
			t.Fatalf("Align failed: %v", err)
		}
		if result.EmbeddingScore != 0 || len(result.ObjectiveAlignments) != 0 {
			t.Error("Expected empty zero-score result")
		}
	})
}
