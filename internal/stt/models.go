package stt

import (
	"fmt"
	"os"
	"path/filepath"
)

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// WhisperModel is a downloadable whisper.cpp model for the local provider.
type WhisperModel struct {
	Name   string // file name, e.g. "ggml-base.en.bin"
	Label  string
	SizeMB int64
}

// URL is where the model file is downloaded from.
func (m WhisperModel) URL() string {
	return modelBaseURL + m.Name
}

// SizeBytes is the approximate download size, used when the server sends no
// Content-Length.
func (m WhisperModel) SizeBytes() int64 {
	return m.SizeMB * 1_000_000
}

// Size is the human readable download size.
func (m WhisperModel) Size() string {
	if m.SizeMB >= 1000 {
		return fmt.Sprintf("%.1f GB", float64(m.SizeMB)/1000)
	}
	return fmt.Sprintf("%d MB", m.SizeMB)
}

// WhisperModels lists the models `notionvox models download` knows about.
// Voice memos are short, so the small models are usually enough.
var WhisperModels = []WhisperModel{
	{"ggml-tiny.en.bin", "Tiny English", 39},
	{"ggml-tiny.bin", "Tiny Multilingual", 39},
	{"ggml-base.en.bin", "Base English", 142},
	{"ggml-base.bin", "Base Multilingual", 142},
	{"ggml-small.en.bin", "Small English", 466},
	{"ggml-small.bin", "Small Multilingual", 466},
	{"ggml-large-v3-turbo.bin", "Large V3 Turbo", 1620},
}

// GetModel returns the model with the given name, or nil if not found.
func GetModel(name string) *WhisperModel {
	for i := range WhisperModels {
		if WhisperModels[i].Name == name {
			return &WhisperModels[i]
		}
	}
	return nil
}

// IsModelDownloaded reports whether a non-empty model file exists in modelsDir.
func IsModelDownloaded(modelsDir, name string) bool {
	if modelsDir == "" || name == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(modelsDir, name))
	return err == nil && !info.IsDir() && info.Size() > 0
}
