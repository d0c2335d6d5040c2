package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
)

// OpenAIProvider talks to OpenAI or any OpenAI-compatible chat endpoint.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	params GenerationParams
}

// NewOpenAIProvider creates a chat-completions provider.
func NewOpenAIProvider(cfg ProviderConfig, params GenerationParams, timeout time.Duration) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if baseURL := cfg.BaseURL; baseURL != "" {
		// Ensure the URL ends with /v1 for OpenAI-compatible APIs
		if !strings.HasSuffix(baseURL, "/v1") && !strings.HasSuffix(baseURL, "/v1/") {
			baseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
		}
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	L_debug("llm: openai provider created", "model", model, "maxTokens", params.MaxTokens, "baseURL", config.BaseURL)

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
		params: params,
	}, nil
}

// Name returns the provider type.
func (p *OpenAIProvider) Name() string { return "openai" }

// Model returns the configured model.
func (p *OpenAIProvider) Model() string { return p.model }

// SimpleMessage sends one user message and returns the first choice's text.
func (p *OpenAIProvider) SimpleMessage(ctx context.Context, userMessage, systemPrompt string) (string, error) {
	start := time.Now()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userMessage})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   p.params.MaxTokens,
		Temperature: float32(p.params.Temperature),
	})
	MetricSince("llm", "openai", start)
	if err != nil {
		MetricFailWithReason("llm", "openai", string(ClassifyError(err.Error())))
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		MetricFailWithReason("llm", "openai", "empty")
		return "", fmt.Errorf("openai returned no choices")
	}

	MetricSuccess("llm", "openai")
	L_debug("llm: openai reply", "model", p.model, "promptTokens", resp.Usage.PromptTokens,
		"completionTokens", resp.Usage.CompletionTokens, "elapsed", time.Since(start).Round(time.Millisecond))
	return resp.Choices[0].Message.Content, nil
}
