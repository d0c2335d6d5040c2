package stt

import (
	"fmt"
	"path/filepath"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/paths"
)

// Config holds STT configuration.
type Config struct {
	Provider   string           `json:"provider"`   // "openai", "groq", "whispercpp"; empty = pick from credentials
	OpenAI     OpenAIConfig     `json:"openai"`     // OpenAI Whisper API
	Groq       GroqConfig       `json:"groq"`       // Groq Whisper API
	WhisperCpp WhisperCppConfig `json:"whispercpp"` // Local whisper.cpp
	FFmpegPath string           `json:"ffmpegPath"` // default: ffmpeg on $PATH
}

// OpenAIConfig holds OpenAI Whisper configuration.
type OpenAIConfig struct {
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"`   // "whisper-1"
	BaseURL string `json:"baseURL"` // OpenAI-compatible endpoint override
}

// GroqConfig holds Groq Whisper configuration.
type GroqConfig struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"` // "whisper-large-v3", "whisper-large-v3-turbo", "distil-whisper-large-v3-en"
}

// ResolveProvider returns the provider name to use: the explicit one, or the
// first with credentials in the order openai, groq, whispercpp.
func (c Config) ResolveProvider() string {
	if c.Provider != "" {
		return c.Provider
	}
	switch {
	case c.OpenAI.APIKey != "":
		return "openai"
	case c.Groq.APIKey != "":
		return "groq"
	case c.WhisperCpp.Model != "":
		return "whispercpp"
	}
	return ""
}

// NewProvider builds the configured provider.
// Returns (nil, nil) when no provider is configured; the transcriber then
// reports every request as unavailable.
func NewProvider(cfg Config) (Provider, error) {
	name := cfg.ResolveProvider()
	switch name {
	case "":
		L_debug("stt: no provider configured")
		return nil, nil
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			L_warn("stt: openai API key not configured")
			return nil, nil
		}
		return NewOpenAIProvider(cfg.OpenAI)
	case "groq":
		if cfg.Groq.APIKey == "" {
			L_warn("stt: groq API key not configured")
			return nil, nil
		}
		return NewGroqProvider(cfg.Groq)
	case "whispercpp":
		return newWhisperCppFromConfig(cfg.WhisperCpp, cfg.FFmpegPath)
	default:
		return nil, fmt.Errorf("stt: unknown provider: %s", name)
	}
}

func newWhisperCppFromConfig(cfg WhisperCppConfig, ffmpeg string) (Provider, error) {
	if cfg.Model == "" {
		L_warn("stt: whispercpp not fully configured", "modelsDir", cfg.ModelsDir, "model", cfg.Model)
		return nil, nil
	}
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = DefaultModelsDir()
	}

	modelsDir, err := paths.ExpandTilde(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("stt: failed to expand models dir: %w", err)
	}
	if !IsModelDownloaded(modelsDir, cfg.Model) {
		return nil, fmt.Errorf("stt: model not found at %s (run 'notionvox models download %s')",
			filepath.Join(modelsDir, cfg.Model), cfg.Model)
	}

	cfg.ModelsDir = modelsDir
	provider, err := NewWhisperCppProvider(cfg, ffmpeg)
	if err != nil {
		return nil, fmt.Errorf("stt: failed to initialize whispercpp: %w", err)
	}
	return provider, nil
}

// DefaultModelsDir is where whisper.cpp models are downloaded to.
func DefaultModelsDir() string {
	dir, err := paths.DataPath(filepath.Join("stt", "whisper"))
	if err != nil {
		return "~/.notionvox/stt/whisper"
	}
	return dir
}
