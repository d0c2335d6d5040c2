package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// WhisperCppConfig selects a local ggml model.
type WhisperCppConfig struct {
	ModelsDir string `json:"modelsDir"`
	Model     string `json:"model"`    // file name, e.g. ggml-base.en.bin
	Language  string `json:"language"` // "auto", "en", ...
	Threads   uint   `json:"threads"`  // 0 lets whisper.cpp decide
}

// WhisperCppProvider transcribes on this machine with whisper.cpp.
type WhisperCppProvider struct {
	model  whisper.Model
	cfg    WhisperCppConfig
	ffmpeg string
}

// NewWhisperCppProvider loads ModelsDir/Model. ffmpeg may be empty; OGG/Opus
// voice notes still decode without it.
func NewWhisperCppProvider(cfg WhisperCppConfig, ffmpeg string) (*WhisperCppProvider, error) {
	if cfg.ModelsDir == "" || cfg.Model == "" {
		return nil, errors.New("whisper.cpp needs modelsDir and model")
	}
	path := filepath.Join(cfg.ModelsDir, cfg.Model)

	L_info("stt: loading whisper.cpp model", "path", path)
	model, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("load whisper model %s: %w", cfg.Model, err)
	}
	L_debug("stt: whisper.cpp model ready", "multilingual", model.IsMultilingual())

	return &WhisperCppProvider{model: model, cfg: cfg, ffmpeg: ffmpeg}, nil
}

func (w *WhisperCppProvider) Name() string { return "whispercpp" }

// Accepts reports the containers ConvertToFloat32 handles.
func (w *WhisperCppProvider) Accepts(mime string) bool {
	switch strings.ToLower(mime) {
	case "audio/ogg", "application/ogg", "audio/wav", "audio/x-wav", "audio/mpeg":
		return true
	}
	return false
}

// Transcribe runs the model over the decoded file. A whisper.cpp run cannot
// be interrupted, so ctx only gates the start.
func (w *WhisperCppProvider) Transcribe(ctx context.Context, filePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	samples, err := ConvertToFloat32(ctx, w.ffmpeg, filePath)
	if err != nil {
		return "", err
	}
	L_debug("stt: whisper.cpp input",
		"file", filepath.Base(filePath),
		"seconds", float64(len(samples))/whisperSampleRate)

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper context: %w", err)
	}
	w.configure(wctx)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}
	return segmentsText(wctx)
}

func (w *WhisperCppProvider) configure(wctx whisper.Context) {
	if lang := w.cfg.Language; lang != "" {
		if err := wctx.SetLanguage(lang); err != nil {
			L_warn("stt: whisper.cpp language rejected", "language", lang, "error", err)
		}
	}
	if w.cfg.Threads > 0 {
		wctx.SetThreads(w.cfg.Threads)
	}
}

func segmentsText(wctx whisper.Context) (string, error) {
	var b strings.Builder
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			return strings.TrimSpace(b.String()), nil
		}
		if err != nil {
			return "", fmt.Errorf("whisper segment: %w", err)
		}
		b.WriteString(seg.Text)
	}
}

func (w *WhisperCppProvider) Close() error {
	return w.model.Close()
}
