package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/interfaces"
)

const recognizerSystemPrompt = `You are an entity recognizer for strategic planning documents.
Given a planning statement, identify the goals and initiatives it states.
A GOAL is a desired outcome; an INITIATIVE is a named program or effort.
Respond with a JSON array only, no prose:
[{"text": "<exact span from the statement>", "type": "GOAL"}]
Valid types: GOAL, INITIATIVE. Return [] when the statement contains neither.`

// LLMRecognizer identifies goal and initiative spans using the chat
// model. It backs the extractor for entity types that carry no number
// or date the pattern recognizers could anchor on.
type LLMRecognizer struct {
	llmService interfaces.LLMService
	logger     arbor.ILogger
}

// NewLLMRecognizer creates an LLM-backed entity recognizer
func NewLLMRecognizer(llmService interfaces.LLMService, logger arbor.ILogger) *LLMRecognizer {
	return &LLMRecognizer{
		llmService: llmService,
		logger:     logger,
	}
}

// Recognize extracts goal and initiative spans from a statement
func (r *LLMRecognizer) Recognize(ctx context.Context, text string) ([]interfaces.RecognizedSpan, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	response, err := r.llmService.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: recognizerSystemPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		return nil, fmt.Errorf("recognizer chat call failed: %w", err)
	}

	var payload []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(extractJSONPayload(response)), &payload); err != nil {
		return nil, fmt.Errorf("recognizer returned unparseable response: %w", err)
	}

	// Only spans actually present in the statement are trusted
	spans := make([]interfaces.RecognizedSpan, 0, len(payload))
	for _, item := range payload {
		if item.Text != "" && strings.Contains(strings.ToLower(text), strings.ToLower(item.Text)) {
			spans = append(spans, interfaces.RecognizedSpan{Text: item.Text, TypeLabel: item.Type})
		}
	}

	return spans, nil
}

// extractJSONPayload strips markdown code fences and surrounding prose
// that chat models wrap around JSON output
func extractJSONPayload(response string) string {
	s := strings.TrimSpace(response)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '[' {
		end = strings.LastIndex(s, "]")
	} else {
		end = strings.LastIndex(s, "}")
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}

// Ensure LLMRecognizer implements the EntityRecognizer interface
var _ interfaces.EntityRecognizer = (*LLMRecognizer)(nil)
