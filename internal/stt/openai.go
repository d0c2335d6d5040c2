package stt

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// whisperAPIFormats are the containers the hosted Whisper endpoints accept.
// The endpoints key off the file extension, so the MIME is mapped to the
// extension the upload must carry.
var whisperAPIFormats = map[string]string{
	"audio/ogg":       ".ogg",
	"application/ogg": ".ogg",
	"audio/mpeg":      ".mp3",
	"audio/wav":       ".wav",
	"audio/x-wav":     ".wav",
	"audio/flac":      ".flac",
	"audio/x-flac":    ".flac",
	"audio/mp4":       ".m4a",
	"audio/x-m4a":     ".m4a",
	"video/mp4":       ".mp4",
	"audio/webm":      ".webm",
	"video/webm":      ".webm",
}

// OpenAIProvider implements STT using an OpenAI-compatible transcription API.
// Groq is served by the same type with a different base URL and model.
type OpenAIProvider struct {
	name   string
	model  string
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI Whisper STT provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	L_info("stt: openai provider initialized", "model", model)

	return &OpenAIProvider{
		name:   "openai",
		model:  model,
		client: openai.NewClientWithConfig(clientCfg),
	}, nil
}

// Transcribe uploads the audio file and returns the recognized text.
func (o *OpenAIProvider) Transcribe(ctx context.Context, filePath string) (string, error) {
	L_debug("stt: transcribing", "provider", o.name, "file", filePath, "model", o.model)

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: filePath,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", o.name, err)
	}

	L_debug("stt: transcription complete", "provider", o.name, "length", len(resp.Text))
	return resp.Text, nil
}

// Accepts reports whether the hosted endpoint takes this container directly.
func (o *OpenAIProvider) Accepts(mime string) bool {
	_, ok := whisperAPIFormats[strings.ToLower(mime)]
	return ok
}

// Name returns the provider name.
func (o *OpenAIProvider) Name() string {
	return o.name
}

// Close releases any resources (none for HTTP client).
func (o *OpenAIProvider) Close() error {
	return nil
}
