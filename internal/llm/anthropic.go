package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
)

// AnthropicProvider talks to the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
	params GenerationParams
}

// NewAnthropicProvider creates a Messages API provider.
func NewAnthropicProvider(cfg ProviderConfig, params GenerationParams, timeout time.Duration) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	L_debug("llm: anthropic provider created", "model", model, "maxTokens", params.MaxTokens)

	return &AnthropicProvider{
		client: &client,
		model:  model,
		params: params,
	}, nil
}

// Name returns the provider type.
func (c *AnthropicProvider) Name() string { return "anthropic" }

// Model returns the configured model.
func (c *AnthropicProvider) Model() string { return c.model }

// SimpleMessage sends one user message and joins the text blocks of the reply.
func (c *AnthropicProvider) SimpleMessage(ctx context.Context, userMessage, systemPrompt string) (string, error) {
	start := time.Now()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(c.params.MaxTokens),
		Temperature: anthropic.Float(c.params.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	MetricSince("llm", "anthropic", start)
	if err != nil {
		MetricFailWithReason("llm", "anthropic", string(ClassifyError(err.Error())))
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	MetricSuccess("llm", "anthropic")
	L_debug("llm: anthropic reply", "model", c.model, "inputTokens", msg.Usage.InputTokens,
		"outputTokens", msg.Usage.OutputTokens, "stopReason", msg.StopReason)
	return text.String(), nil
}
