package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Analysis.EmbeddingWeight != 0.60 || config.Analysis.EntityWeight != 0.40 {
		t.Fatalf("unexpected default weights: %.2f/%.2f",
			config.Analysis.EmbeddingWeight, config.Analysis.EntityWeight)
	}
	if config.Analysis.FuzzyThreshold != 85.0 {
		t.Fatalf("unexpected default fuzzy threshold: %.2f", config.Analysis.FuzzyThreshold)
	}
	if config.Analysis.SimilarityThreshold != 0.70 {
		t.Fatalf("unexpected default similarity threshold: %.2f", config.Analysis.SimilarityThreshold)
	}
	if config.LLM.Insights != "rule_based" {
		t.Fatalf("unexpected default insights mode: %s", config.LLM.Insights)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadFromFiles(t *testing.T) {
	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfigFile(t, "concordia.toml", `
[analysis]
fuzzy_threshold = 90.0
top_k = 3
`)
		config, err := LoadFromFiles(path)
		if err != nil {
			t.Fatalf("LoadFromFiles failed: %v", err)
		}
		if config.Analysis.FuzzyThreshold != 90.0 {
			t.Fatalf("expected file override, got %.2f", config.Analysis.FuzzyThreshold)
		}
		if config.Analysis.TopK != 3 {
			t.Fatalf("expected file override, got %d", config.Analysis.TopK)
		}
		// Untouched settings keep defaults
		if config.Analysis.SimilarityThreshold != 0.70 {
			t.Fatalf("default lost: %.2f", config.Analysis.SimilarityThreshold)
		}
	})

	t.Run("later files take precedence", func(t *testing.T) {
		base := writeConfigFile(t, "base.toml", `
[logging]
level = "debug"
[analysis]
top_k = 7
`)
		override := writeConfigFile(t, "override.toml", `
[logging]
level = "error"
`)
		config, err := LoadFromFiles(base, override)
		if err != nil {
			t.Fatalf("LoadFromFiles failed: %v", err)
		}
		if config.Logging.Level != "error" {
			t.Fatalf("expected override to win, got %s", config.Logging.Level)
		}
		if config.Analysis.TopK != 7 {
			t.Fatalf("expected base setting preserved, got %d", config.Analysis.TopK)
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		if _, err := LoadFromFiles("/nonexistent/concordia.toml"); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := writeConfigFile(t, "concordia.toml", `
[logging]
level = "debug"
`)
		t.Setenv("CONCORDIA_LOG_LEVEL", "warn")
		config, err := LoadFromFiles(path)
		if err != nil {
			t.Fatalf("LoadFromFiles failed: %v", err)
		}
		if config.Logging.Level != "warn" {
			t.Fatalf("expected env override, got %s", config.Logging.Level)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "weights must sum to one",
			mutate: func(c *Config) { c.Analysis.EmbeddingWeight = 0.8 },
			field:  "analysis.embedding_weight/entity_weight",
		},
		{
			name: "weights must be non-negative",
			mutate: func(c *Config) {
				c.Analysis.EmbeddingWeight = 1.2
				c.Analysis.EntityWeight = -0.2
			},
			field: "analysis.embedding_weight/entity_weight",
		},
		{
			name:   "fuzzy threshold range",
			mutate: func(c *Config) { c.Analysis.FuzzyThreshold = 150 },
			field:  "analysis.fuzzy_threshold",
		},
		{
			name:   "similarity threshold range",
			mutate: func(c *Config) { c.Analysis.SimilarityThreshold = 1.5 },
			field:  "analysis.similarity_threshold",
		},
		{
			name:   "top_k minimum",
			mutate: func(c *Config) { c.Analysis.TopK = 0 },
			field:  "analysis.top_k",
		},
		{
			name:   "insights mode",
			mutate: func(c *Config) { c.LLM.Insights = "vibes" },
			field:  "llm.insights",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tc.mutate(config)

			err := config.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var configErr *ConfigurationError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected ConfigurationError, got %T", err)
			}
			if configErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, configErr.Field)
			}
		})
	}
}

type staticKV struct {
	values map[string]string
}

func (s *staticKV) Get(ctx context.Context, key string) (string, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func (s *staticKV) Set(ctx context.Context, key, value, description string) error { return nil }
func (s *staticKV) Delete(ctx context.Context, key string) error                  { return nil }
func (s *staticKV) GetAll(ctx context.Context) (map[string]string, error)         { return s.values, nil }

func TestResolveAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "from-env")
		kv := &staticKV{values: map[string]string{"gemini_api_key": "from-kv"}}

		key, err := ResolveAPIKey(ctx, kv, "gemini_api_key", "from-config")
		if err != nil {
			t.Fatalf("ResolveAPIKey failed: %v", err)
		}
		if key != "from-env" {
			t.Fatalf("expected env key, got %s", key)
		}
	})

	t.Run("kv store before config fallback", func(t *testing.T) {
		t.Setenv("CONCORDIA_GEMINI_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "")
		kv := &staticKV{values: map[string]string{"gemini_api_key": "from-kv"}}

		key, err := ResolveAPIKey(ctx, kv, "gemini_api_key", "from-config")
		if err != nil {
			t.Fatalf("ResolveAPIKey failed: %v", err)
		}
		if key != "from-kv" {
			t.Fatalf("expected kv key, got %s", key)
		}
	})

	t.Run("config fallback", func(t *testing.T) {
		t.Setenv("CONCORDIA_CLAUDE_API_KEY", "")
		t.Setenv("ANTHROPIC_API_KEY", "")
		key, err := ResolveAPIKey(ctx, &staticKV{}, "anthropic_api_key", "from-config")
		if err != nil {
			t.Fatalf("ResolveAPIKey failed: %v", err)
		}
		if key != "from-config" {
			t.Fatalf("expected config fallback, got %s", key)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Setenv("CONCORDIA_GEMINI_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "")
		if _, err := ResolveAPIKey(ctx, &staticKV{}, "gemini_api_key", ""); err == nil {
			t.Fatal("expected error when no key source has a value")
		}
	})
}
