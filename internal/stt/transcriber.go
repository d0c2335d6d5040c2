package stt

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
)

// ErrNotConfigured is the reason given when no provider credential is set.
var ErrNotConfigured = errors.New("not configured")

// Kind classifies a transcription failure.
type Kind int

const (
	KindUnavailable Kind = iota + 1 // no provider credential
	KindFailed                      // provider call failed or returned nothing
	KindConversion                  // audio could not be made acceptable
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindFailed:
		return "failed"
	case KindConversion:
		return "conversion"
	default:
		return "unknown"
	}
}

// Result is either a Transcript or a Failure.
type Result interface {
	isResult()
}

// Transcript is a successful, non-empty transcription.
type Transcript struct {
	Text string
}

// Failure describes why no transcript was produced.
type Failure struct {
	Kind   Kind
	Reason string
}

func (Transcript) isResult() {}
func (Failure) isResult()    {}

func (f Failure) Error() string {
	return f.Reason
}

// Transcriber wraps a Provider with container normalization and turns every
// outcome into a Result. A nil provider means no credential was configured.
type Transcriber struct {
	provider Provider
	convert  ConvertFunc
}

// NewTranscriber creates a transcriber. p may be nil.
func NewTranscriber(p Provider, ffmpeg string) *Transcriber {
	return &Transcriber{
		provider: p,
		convert: func(ctx context.Context, in, out string) error {
			return ConvertToMP3(ctx, ffmpeg, in, out)
		},
	}
}

// WithConverter replaces the mp3 converter.
func (t *Transcriber) WithConverter(fn ConvertFunc) *Transcriber {
	t.convert = fn
	return t
}

// Configured reports whether a provider is available.
func (t *Transcriber) Configured() bool {
	return t != nil && t.provider != nil
}

// ProviderName returns the provider name, or "" when unconfigured.
func (t *Transcriber) ProviderName() string {
	if !t.Configured() {
		return ""
	}
	return t.provider.Name()
}

// Transcribe runs a single provider call for filePath. It never retries.
func (t *Transcriber) Transcribe(ctx context.Context, filePath string) Result {
	if !t.Configured() {
		MetricFailWithReason("stt", "transcribe", KindUnavailable.String())
		return Failure{Kind: KindUnavailable, Reason: ErrNotConfigured.Error()}
	}
	name := t.provider.Name()

	audio, err := prepareAudio(ctx, t.provider, filePath, t.convert)
	if err != nil {
		L_warn("stt: audio preparation failed", "file", filePath, "error", err)
		MetricFailWithReason("stt", name, KindConversion.String())
		return Failure{Kind: KindConversion, Reason: err.Error()}
	}
	defer audio.cleanup()

	start := time.Now()
	text, err := t.provider.Transcribe(ctx, audio.path)
	MetricSince("stt", name, start)
	if err != nil {
		L_error("stt: transcription failed", "provider", name, "error", err)
		MetricFailWithReason("stt", name, KindFailed.String())
		return Failure{Kind: KindFailed, Reason: err.Error()}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		L_warn("stt: provider returned empty transcript", "provider", name, "file", filePath)
		MetricFailWithReason("stt", name, "empty")
		return Failure{Kind: KindFailed, Reason: "empty transcript"}
	}

	MetricSuccess("stt", name)
	L_elapsed(start, "stt: transcribed", "provider", name, "mime", audio.mime, "chars", len(text))
	return Transcript{Text: text}
}

// Close releases the provider.
func (t *Transcriber) Close() error {
	if !t.Configured() {
		return nil
	}
	return t.provider.Close()
}
