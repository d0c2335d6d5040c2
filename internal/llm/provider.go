// Package llm provides language-model providers for short one-shot prompts.
package llm

import "context"

// Provider is the interface for LLM backends.
// Implementations: OpenAIProvider, AnthropicProvider
type Provider interface {
	Name() string  // Provider type (e.g., "openai", "anthropic")
	Model() string // Model requests are sent to

	// SimpleMessage sends a single user turn (no tools, no streaming) and
	// returns the concatenated text of the reply.
	SimpleMessage(ctx context.Context, userMessage, systemPrompt string) (string, error)
}

// GenerationParams bounds a single completion.
type GenerationParams struct {
	MaxTokens   int
	Temperature float64
}
