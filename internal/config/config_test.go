package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "none", cfg.LLM.Provider)
	assert.Equal(t, 30, cfg.Scoring.ReviewSampleLimit)
	assert.True(t, cfg.Scoring.RankingEnabled)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 2*time.Second, cfg.Batch.PacingInterval.Std())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
llm:
  provider: ollama
  model: llama3
scoring:
  review_sample_limit: 20
  ranking_enabled: false
batch:
  max_concurrent: 2
  pacing_interval: 500ms
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 20, cfg.Scoring.ReviewSampleLimit)
	assert.False(t, cfg.Scoring.RankingEnabled)
	assert.Equal(t, 2, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 500*time.Millisecond, cfg.Batch.PacingInterval.Std())
}

func TestLoad_EnvInterpolation(t *testing.T) {
	t.Setenv("TEST_TRUSTLENS_KEY", "sk-test-123")

	path := writeConfig(t, `
llm:
  provider: openai
  api_key: ${TEST_TRUSTLENS_KEY}
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", cfg.LLM.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestValidate_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(*Config)
		expected string
	}{
		{
			name:     "invalid port",
			mutate:   func(c *Config) { c.Server.Port = 0 },
			expected: "invalid port",
		},
		{
			name:     "unknown provider",
			mutate:   func(c *Config) { c.LLM.Provider = "bard" },
			expected: "unsupported LLM provider",
		},
		{
			name:     "openai without key",
			mutate:   func(c *Config) { c.LLM.Provider = "openai" },
			expected: "OpenAI API key is required",
		},
		{
			name:     "anthropic without key",
			mutate:   func(c *Config) { c.LLM.Provider = "anthropic" },
			expected: "Anthropic API key is required",
		},
		{
			name:     "zero sample limit",
			mutate:   func(c *Config) { c.Scoring.ReviewSampleLimit = 0 },
			expected: "review_sample_limit",
		},
		{
			name:     "zero concurrency",
			mutate:   func(c *Config) { c.Batch.MaxConcurrent = 0 },
			expected: "max_concurrent",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expected)
		})
	}
}

func TestGenerateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")

	require.NoError(t, GenerateSample(path))

	// The sample must round-trip through Load once a key is present.
	t.Setenv("OPENAI_API_KEY", "sk-sample")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-sample", cfg.LLM.APIKey)
}
