// Package chat answers questions about a synchronization result using
// retrieval over the result and its source documents.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
	"github.com/ternarybob/concordia/internal/services/embeddings"
)

// contextChunks is how many retrieved chunks back one answer
const contextChunks = 8

const chatSystemPrompt = `You answer questions about how well an action plan supports a strategic plan.
Ground every statement in the provided context. Quote scores exactly as given.
If the context does not cover the question, say so instead of guessing.`

// Service answers natural-language questions about a synchronization
// result. The result and both documents are chunked and embedded; the
// most relevant chunks are handed to the chat model with the question.
type Service struct {
	embedder interfaces.EmbeddingService
	llm      interfaces.LLMService
	logger   arbor.ILogger
}

// NewService creates a chat service
func NewService(embedder interfaces.EmbeddingService, llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		embedder: embedder,
		llm:      llm,
		logger:   logger,
	}
}

// Ask answers a question about the given result and its source
// documents
func (s *Service) Ask(ctx context.Context, question string, result *models.FinalSynchronizationResult, strategic, action *models.StructuredDocument) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question cannot be empty")
	}
	if result == nil {
		return "", fmt.Errorf("a synchronization result is required")
	}

	chunks := buildChunks(result, strategic, action)

	index := embeddings.NewMemoryIndex()
	byID := make(map[string]string, len(chunks))
	for i, chunk := range chunks {
		id := fmt.Sprintf("chunk_%d", i)
		vector, err := s.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			s.logger.Warn().Int("chunk", i).Err(err).Msg("Failed to embed context chunk, skipping")
			continue
		}
		if err := index.Upsert(id, "", vector); err != nil {
			return "", fmt.Errorf("failed to index context chunk: %w", err)
		}
		byID[id] = chunk
	}

	if index.Len() == 0 {
		return "", fmt.Errorf("no context could be embedded for retrieval")
	}

	questionVector, err := s.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := index.Query(questionVector, contextChunks)
	if err != nil {
		return "", fmt.Errorf("context retrieval failed: %w", err)
	}

	var contextText strings.Builder
	for _, hit := range hits {
		contextText.WriteString("- ")
		contextText.WriteString(byID[hit.ID])
		contextText.WriteString("\n")
	}

	answer, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: chatSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Context:\n%s\nQuestion: %s", contextText.String(), question)},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	s.logger.Debug().
		Int("context_chunks", len(hits)).
		Int("answer_length", len(answer)).
		Msg("Answered question")

	return answer, nil
}

// buildChunks flattens the result and both documents into retrievable
// statements
func buildChunks(result *models.FinalSynchronizationResult, strategic, action *models.StructuredDocument) []string {
	var chunks []string

	chunks = append(chunks, fmt.Sprintf(
		"Overall synchronization between '%s' and '%s' scored %.1f (semantic %.1f, entity %.1f) on %s.",
		result.StrategicPlan, result.ActionPlan,
		result.OverallScore, result.EmbeddingScore, result.EntityScore, result.AssessmentDate))

	chunks = append(chunks, fmt.Sprintf(
		"%d of %d objectives have strong action-plan support. %d of %d strategic entities are matched.",
		result.Summary.ObjectivesWithStrongSupport, result.Summary.TotalObjectives,
		result.Summary.MatchedEntities, result.Summary.TotalStrategicEntities))

	for _, objective := range result.ObjectiveSynchronizations {
		chunk := fmt.Sprintf("Objective '%s' scored %.1f (semantic %.1f, %d entity matches).",
			objective.ObjectiveTitle, objective.CombinedScore, objective.EmbeddingScore, objective.EntityMatches)
		if len(objective.Gaps) > 0 {
			chunk += " Gaps: " + strings.Join(objective.Gaps, "; ") + "."
		}
		if len(objective.TopMatchingActions) > 0 {
			chunk += " Closest actions: " + strings.Join(objective.TopMatchingActions, "; ") + "."
		}
		chunks = append(chunks, chunk)
	}

	for _, strength := range result.Strengths {
		chunks = append(chunks, "Strength: "+strength)
	}
	for _, weakness := range result.Weaknesses {
		chunks = append(chunks, "Weakness: "+weakness)
	}
	for _, rec := range result.Recommendations {
		chunks = append(chunks, fmt.Sprintf("Recommendation (%s priority) for '%s': %s",
			rec.Priority, rec.Objective, strings.Join(rec.Actions, "; ")))
	}

	for _, doc := range []*models.StructuredDocument{strategic, action} {
		if doc == nil {
			continue
		}
		for _, section := range doc.Sections {
			if section.Content != "" {
				chunks = append(chunks, fmt.Sprintf("%s, section '%s': %s", doc.Title, section.Title, section.Content))
			}
			for _, objective := range section.Objectives {
				chunks = append(chunks, fmt.Sprintf("%s objective: %s", doc.Title, objective.Text()))
			}
			for _, item := range section.Actions {
				chunks = append(chunks, fmt.Sprintf("%s action: %s", doc.Title, item.Text()))
			}
		}
	}

	return chunks
}
