package stt

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// GroqBaseURL is Groq's OpenAI-compatible API root.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// NewGroqProvider creates a Whisper provider backed by Groq.
func NewGroqProvider(cfg GroqConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key not configured")
	}

	model := cfg.Model
	if model == "" {
		model = "whisper-large-v3"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = GroqBaseURL

	L_info("stt: groq provider initialized", "model", model)

	return &OpenAIProvider{
		name:   "groq",
		model:  model,
		client: openai.NewClientWithConfig(clientCfg),
	}, nil
}
