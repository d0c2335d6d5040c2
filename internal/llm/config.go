package llm

import (
	"fmt"
	"time"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// Defaults for title generation.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultMaxTokens      = 20
	DefaultTemperature    = 0.3
	DefaultTimeout        = 30 * time.Second
)

// Config selects and configures the titling model.
type Config struct {
	Provider       string         `json:"provider"` // "openai", "anthropic"; empty = pick from credentials
	OpenAI         ProviderConfig `json:"openai"`
	Anthropic      ProviderConfig `json:"anthropic"`
	MaxTokens      int            `json:"maxTokens"`      // output cap, default 20
	Temperature    *float64       `json:"temperature"`    // default 0.3
	TimeoutSeconds int            `json:"timeoutSeconds"` // per request, default 30
}

// ProviderConfig is the configuration for a single provider.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	Model   string `json:"model,omitempty"`
	BaseURL string `json:"baseURL,omitempty"` // For OpenAI-compatible endpoints / proxies
}

// ResolveProvider returns the explicit provider or the first one with a key.
func (c Config) ResolveProvider() string {
	if c.Provider != "" {
		return c.Provider
	}
	switch {
	case c.OpenAI.APIKey != "":
		return "openai"
	case c.Anthropic.APIKey != "":
		return "anthropic"
	}
	return ""
}

// Params returns the generation bounds with defaults applied.
func (c Config) Params() GenerationParams {
	p := GenerationParams{MaxTokens: c.MaxTokens, Temperature: DefaultTemperature}
	if p.MaxTokens <= 0 {
		p.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature != nil {
		p.Temperature = *c.Temperature
	}
	return p
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return DefaultTimeout
}

// NewProvider builds the configured provider. Returns (nil, nil) when no
// credential is set; callers fall back to a truncated transcript.
func NewProvider(cfg Config) (Provider, error) {
	name := cfg.ResolveProvider()
	switch name {
	case "":
		L_debug("llm: no provider configured, titles will be truncated transcripts")
		return nil, nil
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			L_warn("llm: openai API key not configured")
			return nil, nil
		}
		return NewOpenAIProvider(cfg.OpenAI, cfg.Params(), cfg.Timeout())
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			L_warn("llm: anthropic API key not configured")
			return nil, nil
		}
		return NewAnthropicProvider(cfg.Anthropic, cfg.Params(), cfg.Timeout())
	default:
		return nil, fmt.Errorf("llm: unknown provider: %s", name)
	}
}
