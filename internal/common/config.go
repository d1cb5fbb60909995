package common

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/concordia/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Analysis    AnalysisConfig  `toml:"analysis"`
	Embedding   EmbeddingConfig `toml:"embedding"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Schedule    ScheduleConfig  `toml:"schedule"`
	Report      ReportConfig    `toml:"report"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// AnalysisConfig contains the synchronization engine knobs.
// EmbeddingWeight and EntityWeight must sum to 1 (validated at startup).
type AnalysisConfig struct {
	EmbeddingWeight        float64 `toml:"embedding_weight"`         // Weight for semantic similarity (default: 0.60)
	EntityWeight           float64 `toml:"entity_weight"`            // Weight for entity matching (default: 0.40)
	StrongSupportThreshold float64 `toml:"strong_support_threshold"` // Combined score cutoff for strong support (default: 75)
	FuzzyThreshold         float64 `toml:"fuzzy_threshold"`          // Minimum fuzzy match score 0-100 (default: 85)
	SimilarityThreshold    float64 `toml:"similarity_threshold"`     // Minimum semantic similarity 0-1 (default: 0.70)
	TopK                   int     `toml:"top_k"`                    // Actions retrieved per objective (default: 5)
	MaxConcurrency         int     `toml:"max_concurrency"`          // Concurrent objective alignments (default: 4)
}

// EmbeddingConfig contains embedding provider configuration
type EmbeddingConfig struct {
	Model     string `toml:"model"`     // Embedding model (default: "gemini-embedding-001")
	Dimension int    `toml:"dimension"` // Output vector dimension (default: 768)
	RateLimit string `toml:"rate_limit"` // Minimum interval between embed calls (default: "100ms")
	CacheTTL  string `toml:"cache_ttl"` // Per-run embedding cache TTL (default: "30m")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for chat/insight operations (default: "gemini-3-flash-preview")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for chat/insight operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "gemini" or "claude" (default: "gemini")
	Insights        string      `toml:"insights"`         // Insight generator: "rule_based" or "llm_based" (default: "rule_based")
}

// ScheduleConfig contains watch-mode configuration
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"` // Re-run analysis on a cron schedule
	Cron    string `toml:"cron"`    // Cron expression (default: "0 */6 * * *")
}

// ReportConfig contains report export configuration
type ReportConfig struct {
	OutputDir string `toml:"output_dir"` // Directory for exported reports (default: "./reports")
}

// NewDefaultConfig creates a configuration with default values.
// Defaults mirror the documented engine behavior; only user-facing
// settings are expected in concordia.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Analysis: AnalysisConfig{
			EmbeddingWeight:        0.60,
			EntityWeight:           0.40,
			StrongSupportThreshold: 75.0,
			FuzzyThreshold:         85.0,
			SimilarityThreshold:    0.70,
			TopK:                   5,
			MaxConcurrency:         4,
		},
		Embedding: EmbeddingConfig{
			Model:     "gemini-embedding-001",
			Dimension: 768,
			RateLimit: "100ms",
			CacheTTL:  "30m",
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Temperature: 0.3,
			Timeout:     "2m",
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Temperature: 0.3,
			Timeout:     "2m",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
			Insights:        "rule_based",
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 */6 * * *",
		},
		Report: ReportConfig{
			OutputDir: "./reports",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks configuration invariants. Weight or threshold violations
// are ConfigurationErrors and abort startup before any external calls.
func (c *Config) Validate() error {
	if math.Abs(c.Analysis.EmbeddingWeight+c.Analysis.EntityWeight-1.0) > 1e-9 {
		return &ConfigurationError{
			Field:  "analysis.embedding_weight/entity_weight",
			Reason: fmt.Sprintf("weights must sum to 1, got %.4f", c.Analysis.EmbeddingWeight+c.Analysis.EntityWeight),
		}
	}
	if c.Analysis.EmbeddingWeight < 0 || c.Analysis.EntityWeight < 0 {
		return &ConfigurationError{
			Field:  "analysis.embedding_weight/entity_weight",
			Reason: "weights must be non-negative",
		}
	}
	if c.Analysis.FuzzyThreshold < 0 || c.Analysis.FuzzyThreshold > 100 {
		return &ConfigurationError{
			Field:  "analysis.fuzzy_threshold",
			Reason: fmt.Sprintf("must be within [0,100], got %.2f", c.Analysis.FuzzyThreshold),
		}
	}
	if c.Analysis.SimilarityThreshold < 0 || c.Analysis.SimilarityThreshold > 1 {
		return &ConfigurationError{
			Field:  "analysis.similarity_threshold",
			Reason: fmt.Sprintf("must be within [0,1], got %.2f", c.Analysis.SimilarityThreshold),
		}
	}
	if c.Analysis.StrongSupportThreshold < 0 || c.Analysis.StrongSupportThreshold > 100 {
		return &ConfigurationError{
			Field:  "analysis.strong_support_threshold",
			Reason: fmt.Sprintf("must be within [0,100], got %.2f", c.Analysis.StrongSupportThreshold),
		}
	}
	if c.Analysis.TopK < 1 {
		return &ConfigurationError{
			Field:  "analysis.top_k",
			Reason: "must be at least 1",
		}
	}
	if c.LLM.Insights != "rule_based" && c.LLM.Insights != "llm_based" {
		return &ConfigurationError{
			Field:  "llm.insights",
			Reason: fmt.Sprintf("must be 'rule_based' or 'llm_based', got '%s'", c.LLM.Insights),
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CONCORDIA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if badgerPath := os.Getenv("CONCORDIA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("CONCORDIA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("CONCORDIA_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if weight := os.Getenv("CONCORDIA_EMBEDDING_WEIGHT"); weight != "" {
		if w, err := strconv.ParseFloat(weight, 64); err == nil {
			config.Analysis.EmbeddingWeight = w
		}
	}
	if weight := os.Getenv("CONCORDIA_ENTITY_WEIGHT"); weight != "" {
		if w, err := strconv.ParseFloat(weight, 64); err == nil {
			config.Analysis.EntityWeight = w
		}
	}
	if threshold := os.Getenv("CONCORDIA_FUZZY_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Analysis.FuzzyThreshold = t
		}
	}
	if threshold := os.Getenv("CONCORDIA_SIMILARITY_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Analysis.SimilarityThreshold = t
		}
	}

	if provider := os.Getenv("CONCORDIA_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if insights := os.Getenv("CONCORDIA_LLM_INSIGHTS"); insights != "" {
		config.LLM.Insights = insights
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> KV store -> config fallback -> error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"CONCORDIA_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"CONCORDIA_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}
