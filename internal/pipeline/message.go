package pipeline

import (
	"fmt"
	"strings"

	"github.com/roelfdiedericks/notionvox/internal/stt"
	"github.com/roelfdiedericks/notionvox/internal/telegram"
)

const (
	ReceivedHeader  = "✅ Voice message received!\n\n"
	ProcessedHeader = "✅ Voice message processed!\n\n"
)

func receiptDetails(r *run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 From: %s\n", telegram.EscapeMarkdown(r.msg.Sender.DisplayName()))
	fmt.Fprintf(&b, "⏱️ Duration: %d seconds\n", r.msg.Duration)
	fmt.Fprintf(&b, "📁 File size: %d bytes\n", r.size)
	fmt.Fprintf(&b, "💾 Saved as: %s\n", telegram.EscapeMarkdown(r.scratch.Name))
	fmt.Fprintf(&b, "📅 Received at: %s", r.msg.ReceivedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

func transcriptionFailure(f stt.Failure) string {
	if f.Kind == stt.KindUnavailable {
		return "❌ Transcription unavailable: " + telegram.EscapeMarkdown(f.Reason)
	}
	return "❌ Transcription failed: " + telegram.EscapeMarkdown(f.Reason)
}

// displayTranscript shortens very long transcripts for chat. The stored
// record always gets the full text.
func displayTranscript(t string) string {
	runes := []rune(t)
	if len(runes) <= maxTranscriptRunes {
		return t
	}
	return string(runes[:maxTranscriptRunes]) + "… (truncated, full transcript in Notion)"
}
