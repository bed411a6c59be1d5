// Package llm provides a pluggable interface for text-analysis providers.
package llm

import (
	"context"
	"fmt"

	"github.com/trustlens/trustlens/internal/config"
)

// CompletionOptions contains options for completion requests.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
	Model       string
}

// DefaultCompletionOptions returns sensible defaults. Temperature stays low
// so repeated analysis of the same reviews is as reproducible as the vendor
// allows.
func DefaultCompletionOptions() CompletionOptions {
	return CompletionOptions{
		MaxTokens:   500,
		Temperature: 0.1,
	}
}

// Provider defines the interface for text-analysis providers.
type Provider interface {
	// Complete generates a completion for the given prompt.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

	// Name returns the provider name.
	Name() string
}

// NewProvider creates a new provider based on configuration. A "none"
// provider returns nil: callers treat a nil provider as an absent credential
// and use their deterministic fallback path.
func NewProvider(cfg *config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
