package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// Service routes embedding and chat calls to the configured provider.
// Embeddings always go through Gemini (Anthropic exposes no embedding
// API); chat completions follow llm.default_provider.
type Service struct {
	config       *common.Config
	logger       arbor.ILogger
	geminiClient *genai.Client
	claudeClient anthropic.Client
	claudeReady  bool
	timeout      time.Duration
}

// NewService creates the LLM service and resolves API keys up front so
// that credential problems abort the run before any analysis starts.
func NewService(config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*Service, error) {
	ctx := context.Background()

	timeout, err := time.ParseDuration(config.Gemini.Timeout)
	if err != nil {
		return nil, &common.ConfigurationError{Field: "gemini.timeout", Reason: err.Error()}
	}

	geminiKey, err := common.ResolveAPIKey(ctx, kvStorage, "gemini_api_key", config.Gemini.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Gemini API key is required (set CONCORDIA_GEMINI_API_KEY, KV store, or gemini.api_key in config): %w", err)
	}

	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  geminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	s := &Service{
		config:       config,
		logger:       logger,
		geminiClient: geminiClient,
		timeout:      timeout,
	}

	// Claude is optional unless selected as default provider
	claudeKey, claudeErr := common.ResolveAPIKey(ctx, kvStorage, "anthropic_api_key", config.Claude.APIKey)
	if claudeErr == nil {
		s.claudeClient = anthropic.NewClient(option.WithAPIKey(claudeKey))
		s.claudeReady = true
	} else if config.LLM.DefaultProvider == common.LLMProviderClaude {
		return nil, fmt.Errorf("Claude selected as default provider but no API key found: %w", claudeErr)
	}

	logger.Info().
		Str("default_provider", string(config.LLM.DefaultProvider)).
		Str("embed_model", config.Embedding.Model).
		Int("embed_dimension", config.Embedding.Dimension).
		Bool("claude_available", s.claudeReady).
		Msg("LLM service initialized")

	return s, nil
}

// Embed generates an embedding vector for the given text using the
// configured Gemini embedding model.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outputDim := int32(s.config.Embedding.Dimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	var result *genai.EmbedContentResponse
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		result, apiErr = s.geminiClient.Models.EmbedContent(timeoutCtx, s.config.Embedding.Model,
			[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
		if apiErr == nil {
			break
		}

		if attempt == retryConfig.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			backoff = retryConfig.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying embedding call")

		select {
		case <-timeoutCtx.Done():
			return nil, timeoutCtx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return nil, &common.ExternalServiceError{Service: "gemini-embeddings", Err: apiErr}
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, &common.ExternalServiceError{Service: "gemini-embeddings", Err: fmt.Errorf("empty embedding response")}
	}

	embedding := result.Embeddings[0].Values
	if len(embedding) != s.config.Embedding.Dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.config.Embedding.Dimension, len(embedding))
	}

	return embedding, nil
}

// Chat generates a completion using the default provider
func (s *Service) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch s.config.LLM.DefaultProvider {
	case common.LLMProviderClaude:
		return s.chatWithClaude(timeoutCtx, messages)
	default:
		return s.chatWithGemini(timeoutCtx, messages)
	}
}

func (s *Service) chatWithGemini(ctx context.Context, messages []interfaces.Message) (string, error) {
	contents, systemText := convertMessagesToGemini(messages)

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Gemini.Temperature),
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	var resp *genai.GenerateContentResponse
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = s.geminiClient.Models.GenerateContent(ctx, s.config.Gemini.Model, contents, config)
		if apiErr == nil {
			break
		}

		if attempt == retryConfig.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			backoff = retryConfig.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini chat call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", &common.ExternalServiceError{Service: "gemini-chat", Err: apiErr}
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", &common.ExternalServiceError{Service: "gemini-chat", Err: fmt.Errorf("empty response")}
	}

	responseText := resp.Text()
	if responseText == "" {
		return "", &common.ExternalServiceError{Service: "gemini-chat", Err: fmt.Errorf("empty text in response")}
	}

	return responseText, nil
}

func (s *Service) chatWithClaude(ctx context.Context, messages []interfaces.Message) (string, error) {
	if !s.claudeReady {
		return "", fmt.Errorf("Claude client not initialized")
	}

	claudeMessages, systemText := convertMessagesToClaude(messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Claude.Model),
		MaxTokens: int64(s.config.Claude.MaxTokens),
		Messages:  claudeMessages,
	}
	if s.config.Claude.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Claude.Temperature))
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	var resp *anthropic.Message
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = s.claudeClient.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}

		if attempt == retryConfig.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if IsRateLimitError(apiErr) {
			backoff = retryConfig.CalculateBackoff(attempt, 0)
		}

		s.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude chat call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", &common.ExternalServiceError{Service: "claude-chat", Err: apiErr}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", &common.ExternalServiceError{Service: "claude-chat", Err: fmt.Errorf("empty response")}
	}

	return text.String(), nil
}

// HealthCheck exercises the embedding model with a lightweight probe
func (s *Service) HealthCheck(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if _, err := s.Embed(healthCtx, "health check"); err != nil {
		return fmt.Errorf("embedding health check failed: %w", err)
	}
	return nil
}

// Close releases provider clients
func (s *Service) Close() error {
	s.geminiClient = nil
	s.claudeClient = anthropic.Client{}
	s.claudeReady = false
	return nil
}

// convertMessagesToGemini converts messages to Gemini contents, pulling
// system messages out into a single system instruction
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var systemParts []string

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemParts = append(systemParts, msg.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	return contents, strings.Join(systemParts, "\n\n")
}

// convertMessagesToClaude converts messages to Claude params, pulling
// system messages out into the system text
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string) {
	var claudeMessages []anthropic.MessageParam
	var systemParts []string

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemParts = append(systemParts, msg.Content)
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return claudeMessages, strings.Join(systemParts, "\n\n")
}

// Ensure Service implements the LLMService interface
var _ interfaces.LLMService = (*Service)(nil)
