// Package titler derives a short title for a voice memo transcript.
package titler

import (
	"context"
	"fmt"
	"strings"

	"github.com/roelfdiedericks/notionvox/internal/llm"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
	"github.com/roelfdiedericks/notionvox/internal/tokens"
)

const (
	// MaxTitleRunes is the longest title ever returned by the model path.
	MaxTitleRunes = 100
	// FallbackRunes is how much transcript the fallback title keeps.
	FallbackRunes = 50
	// PromptTokenCap bounds the transcript quoted into the prompt.
	PromptTokenCap = 2000
)

const titlePrompt = "Create a very short, concise title (3-8 words maximum) that summarizes the key topic or main point " +
	"of this voice memo transcript. The title should be clear and descriptive.\n\nTranscript: \"%s\"\n\nTitle:"

// Titler turns transcripts into titles. A nil provider means no language
// model credential; every title is then the fallback.
type Titler struct {
	provider llm.Provider
	truncate func(text string, maxTokens int) string
}

// New creates a titler. p may be nil.
func New(p llm.Provider) *Titler {
	return &Titler{
		provider: p,
		truncate: func(text string, maxTokens int) string {
			return tokens.Get().Truncate(text, maxTokens)
		},
	}
}

// Configured reports whether a language model is available.
func (t *Titler) Configured() bool {
	return t != nil && t.provider != nil
}

// TitleFor returns a title for transcript. It never fails: any provider
// error degrades to Fallback.
func (t *Titler) TitleFor(ctx context.Context, transcript string) string {
	if !t.Configured() {
		return Fallback(transcript)
	}

	prompt := fmt.Sprintf(titlePrompt, t.truncate(transcript, PromptTokenCap))
	raw, err := t.provider.SimpleMessage(ctx, prompt, "")
	if err != nil {
		L_warn("titler: title generation failed, using fallback", "provider", t.provider.Name(), "error", err)
		MetricFailWithReason("titler", "generate", string(llm.ClassifyError(err.Error())))
		return Fallback(transcript)
	}

	title := Clean(raw)
	if title == "" {
		L_warn("titler: model returned an empty title, using fallback", "provider", t.provider.Name())
		MetricFailWithReason("titler", "generate", "empty")
		return Fallback(transcript)
	}

	MetricSuccess("titler", "generate")
	L_debug("titler: generated title", "title", title)
	return title
}

// Clean normalizes raw model output: trims whitespace, strips surrounding
// double then single quotes, and caps the length at MaxTitleRunes.
func Clean(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"`)
	title = strings.Trim(title, `'`)
	title = strings.TrimSpace(title)

	runes := []rune(title)
	if len(runes) > MaxTitleRunes {
		title = string(runes[:MaxTitleRunes-3]) + "..."
	}
	return title
}

// Fallback is the title used without a language model: the first
// FallbackRunes runes of the transcript plus "..." when it is longer.
func Fallback(transcript string) string {
	runes := []rune(transcript)
	if len(runes) > FallbackRunes {
		return string(runes[:FallbackRunes]) + "..."
	}
	return transcript
}
