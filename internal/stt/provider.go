// Package stt provides speech-to-text transcription for voice notes.
package stt

import "context"

// Provider is the interface for STT implementations.
type Provider interface {
	// Transcribe converts an audio file to text.
	// filePath must be in a container the provider Accepts.
	Transcribe(ctx context.Context, filePath string) (string, error)

	// Accepts reports whether the provider takes this MIME type as-is.
	Accepts(mime string) bool

	// Name returns the provider name (e.g., "openai", "groq")
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}
