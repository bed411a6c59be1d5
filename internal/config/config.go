// Package config handles application configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Database   DatabaseConfig  `yaml:"database"`
	LLM        LLMConfig       `yaml:"llm"`
	Scoring    ScoringConfig   `yaml:"scoring"`
	Batch      BatchConfig     `yaml:"batch"`
	RateLimits RateLimitConfig `yaml:"rate_limits"`
	Logging    LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LLMConfig struct {
	Provider       string   `yaml:"provider"` // openai, anthropic, ollama, none
	Model          string   `yaml:"model"`
	APIKey         string   `yaml:"api_key"`
	OllamaURL      string   `yaml:"ollama_url"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

type ScoringConfig struct {
	// ReviewSampleLimit caps how many reviews are sent for text analysis.
	ReviewSampleLimit int  `yaml:"review_sample_limit"`
	RankingEnabled    bool `yaml:"ranking_enabled"`
}

type BatchConfig struct {
	MaxConcurrent  int      `yaml:"max_concurrent"`
	PacingInterval Duration `yaml:"pacing_interval"`
}

// Duration wraps time.Duration so YAML values like "2s" parse directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"default_requests_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "./data/trustlens.db",
		},
		LLM: LLMConfig{
			Provider:       "none",
			Model:          "gpt-4o-mini",
			RequestTimeout: Duration(30 * time.Second),
		},
		Scoring: ScoringConfig{
			ReviewSampleLimit: 30,
			RankingEnabled:    true,
		},
		Batch: BatchConfig{
			MaxConcurrent:  5,
			PacingInterval: Duration(2 * time.Second),
		},
		RateLimits: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run with -generate-config to create one)", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Interpolate environment variables
	content := interpolateEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// GenerateSample creates a sample configuration file.
func GenerateSample(path string) error {
	sample := `# TrustLens Configuration
# See documentation for all options

server:
  port: 8080

database:
  path: ./data/trustlens.db

llm:
  # Text-analysis provider for the AI authenticity path. Use "none" to rely
  # on the rule-based fallback only.
  provider: openai  # openai, anthropic, ollama, none
  model: gpt-4o-mini
  api_key: ${OPENAI_API_KEY}
  request_timeout: 30s

  # For Anthropic Claude:
  # provider: anthropic
  # model: claude-3-haiku-20240307
  # api_key: ${ANTHROPIC_API_KEY}

  # For Ollama (local):
  # provider: ollama
  # model: llama3
  # ollama_url: http://localhost:11434

scoring:
  review_sample_limit: 30
  ranking_enabled: true

batch:
  max_concurrent: 5
  pacing_interval: 2s

rate_limits:
  default_requests_per_minute: 60

logging:
  level: info  # debug, info, warn, error
  format: json # json or text
`
	return os.WriteFile(path, []byte(sample), 0644)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	validProviders := map[string]bool{"openai": true, "anthropic": true, "ollama": true, "none": true}
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	// Validate API key requirements
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("OpenAI API key is required")
		}
	case "anthropic":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("Anthropic API key is required")
		}
	}

	if c.Scoring.ReviewSampleLimit < 1 {
		return fmt.Errorf("review_sample_limit must be positive: %d", c.Scoring.ReviewSampleLimit)
	}

	if c.Batch.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be positive: %d", c.Batch.MaxConcurrent)
	}

	return nil
}

// interpolateEnvVars replaces ${VAR_NAME} with environment variable values.
func interpolateEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match // Keep original if not set
	})
}
