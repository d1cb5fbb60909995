package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
)

const insightSystemPrompt = `You are an analyst reviewing how well an action plan supports a strategic plan.
You receive a numeric diagnosis as JSON. Word the findings for an executive audience.
Respond with JSON only, no prose, in this shape:
{
  "strengths": ["..."],
  "weaknesses": ["..."],
  "recommendations": [{"priority": "high", "objective": "...", "actions": ["..."], "expected_impact": "..."}]
}
Rules:
- Mention only objectives present in the diagnosis.
- Do not invent or change any score or count.
- Produce one recommendation for every objective the diagnosis marks with a priority, and none for the rest.`

// LLMBasedGenerator words the diagnosis with a chat model. The output
// schema is identical to the rule-based generator; priorities are
// re-stamped from the diagnosis so the model can phrase but not decide.
type LLMBasedGenerator struct {
	llmService interfaces.LLMService
	logger     arbor.ILogger
}

// NewLLMBasedGenerator creates an LLM-backed insight generator
func NewLLMBasedGenerator(llmService interfaces.LLMService, logger arbor.ILogger) *LLMBasedGenerator {
	return &LLMBasedGenerator{
		llmService: llmService,
		logger:     logger,
	}
}

// Name identifies this generator in logs and results
func (g *LLMBasedGenerator) Name() string {
	return "llm_based"
}

// Generate words the diagnosis via the chat model. Parse failures are
// returned as errors so the caller can fall back to rule-based wording.
func (g *LLMBasedGenerator) Generate(ctx context.Context, diagnosis *models.Diagnosis) (*models.Insights, error) {
	if diagnosis == nil {
		return nil, fmt.Errorf("diagnosis cannot be nil")
	}

	payload, err := json.Marshal(diagnosis)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize diagnosis: %w", err)
	}

	response, err := g.llmService.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: insightSystemPrompt},
		{Role: "user", Content: string(payload)},
	})
	if err != nil {
		return nil, fmt.Errorf("insight chat call failed: %w", err)
	}

	var insights models.Insights
	if err := json.Unmarshal([]byte(jsonPayload(response)), &insights); err != nil {
		return nil, fmt.Errorf("insight response is not valid JSON: %w", err)
	}

	g.enforceDiagnosis(diagnosis, &insights)

	return &insights, nil
}

// enforceDiagnosis drops recommendations for objectives the diagnosis
// did not flag and re-stamps priorities from the diagnosis
func (g *LLMBasedGenerator) enforceDiagnosis(diagnosis *models.Diagnosis, insights *models.Insights) {
	priorities := make(map[string]string)
	for _, od := range diagnosis.Objectives {
		if od.Priority != "" {
			priorities[od.ObjectiveTitle] = od.Priority
		}
	}

	kept := insights.Recommendations[:0]
	for _, rec := range insights.Recommendations {
		priority, flagged := priorities[rec.Objective]
		if !flagged {
			g.logger.Debug().
				Str("objective", rec.Objective).
				Msg("Dropping recommendation for unflagged objective")
			continue
		}
		rec.Priority = priority
		kept = append(kept, rec)
	}
	insights.Recommendations = kept
}

// jsonPayload strips markdown code fences and surrounding prose that
// chat models wrap around JSON output
func jsonPayload(response string) string {
	s := strings.TrimSpace(response)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// Ensure LLMBasedGenerator implements the InsightGenerator interface
var _ interfaces.InsightGenerator = (*LLMBasedGenerator)(nil)
