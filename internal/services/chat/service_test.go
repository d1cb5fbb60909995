package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
)

type hashEmbedder struct{}

func (h *hashEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
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

func (h *hashEmbedder) Dimension() int                     { return 8 }
func (h *hashEmbedder) IsAvailable(_ context.Context) bool { return true }

type capturingLLM struct {
	lastMessages []interfaces.Message
	answer       string
}

func (c *capturingLLM) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("not implemented")
}

func (c *capturingLLM) Chat(_ context.Context, messages []interfaces.Message) (string, error) {
	c.lastMessages = messages
	return c.answer, nil
}

func (c *capturingLLM) HealthCheck(_ context.Context) error { return nil }
func (c *capturingLLM) Close() error                        { return nil }

func sampleResult() *models.FinalSynchronizationResult {
	return &models.FinalSynchronizationResult{
		RunID:          "run_1",
		AssessmentDate: "2026-01-15",
		StrategicPlan:  "Strategic Plan 2026",
		ActionPlan:     "Action Plan 2026",
		OverallScore:   82.5,
		EmbeddingScore: 80,
		EntityScore:    86.25,
		ObjectiveSynchronizations: []models.ObjectiveSynchronization{{
			ObjectiveTitle:   "Grow digital revenue",
			CombinedScore:    92,
			EmbeddingScore:   95,
			EntityMatches:    3,
			HasStrongSupport: true,
		}},
		Strengths: []string{"Digital revenue work is well covered"},
		Summary: models.SynchronizationSummary{
			TotalObjectives:             1,
			ObjectivesWithStrongSupport: 1,
			MatchedEntities:             3,
			TotalStrategicEntities:      4,
		},
	}
}

func TestService_Ask(t *testing.T) {
	t.Run("Answer grounded in retrieved context", func(t *testing.T) {
		llm := &capturingLLM{answer: "The overall score is 82.5."}
		service := NewService(&hashEmbedder{}, llm, common.GetLogger())

		answer, err := service.Ask(context.Background(),
			"What is the overall score?", sampleResult(), nil, nil)
		if err != nil {
			t.Fatalf("Ask failed: %v", err)
		}

		if answer != "The overall score is 82.5." {
			t.Errorf("Unexpected answer: %s", answer)
		}

		if len(llm.lastMessages) != 2 {
			t.Fatalf("Expected system and user message, got %d", len(llm.lastMessages))
		}
		userMessage := llm.lastMessages[1].Content
		if !strings.Contains(userMessage, "What is the overall score?") {
			t.Error("Question missing from prompt")
		}
		if !strings.Contains(userMessage, "Context:") {
			t.Error("Context missing from prompt")
		}
	})

	t.Run("Empty question is rejected", func(t *testing.T) {
		service := NewService(&hashEmbedder{}, &capturingLLM{}, common.GetLogger())

		if _, err := service.Ask(context.Background(), "  ", sampleResult(), nil, nil); err == nil {
			t.Fatal("Expected error for empty question")
		}
	})

	t.Run("Missing result is rejected", func(t *testing.T) {
		service := NewService(&hashEmbedder{}, &capturingLLM{}, common.GetLogger())

		if _, err := service.Ask(context.Background(), "How did it go?", nil, nil, nil); err == nil {
			t.Fatal("Expected error for missing result")
		}
	})
}

func TestBuildChunks(t *testing.T) {
	strategic := &models.StructuredDocument{
		ID: "doc_s", Title: "Strategic Plan 2026", DocumentType: models.DocumentTypeStrategic,
		Sections: []models.Section{{
			ID: "sec_1", Title: "Targets", Content: "Achieve 15% ROE",
			Objectives: []models.Objective{{ID: "obj_1", Title: "Grow digital revenue"}},
		}},
	}

	chunks := buildChunks(sampleResult(), strategic, nil)

	var hasOverall, hasObjective, hasDocContent bool
	for _, chunk := range chunks {
		if strings.Contains(chunk, "82.5") {
			hasOverall = true
		}
		if strings.Contains(chunk, "Grow digital revenue") {
			hasObjective = true
		}
		if strings.Contains(chunk, "Achieve 15% ROE") {
			hasDocContent = true
		}
	}
	if !hasOverall {
		t.Error("Expected a chunk with the overall score")
	}
	if !hasObjective {
		t.Error("Expected a chunk with the objective")
	}
	if !hasDocContent {
		t.Error("Expected a chunk with document content")
	}
}
