package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations:
// embedding generation and chat completions. Implementations route to
// cloud providers (Gemini, Claude) with retry and rate limiting.
type LLMService interface {
	// Embed generates a fixed-dimension embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat generates a completion response based on the conversation
	// history. Messages should contain the full context in chronological
	// order including system prompts.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the service is operational and can handle requests
	HealthCheck(ctx context.Context) error

	// Close releases provider clients and performs cleanup
	Close() error
}
