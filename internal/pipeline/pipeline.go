// Package pipeline turns one inbound voice message into a transcript, a
// Notion page and a status message that is edited in place.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/roelfdiedericks/notionvox/internal/auth"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/media"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
	"github.com/roelfdiedericks/notionvox/internal/notion"
	"github.com/roelfdiedericks/notionvox/internal/stt"
	"github.com/roelfdiedericks/notionvox/internal/telegram"
	"github.com/roelfdiedericks/notionvox/internal/types"
)

// ErrorMessage is the reply when a run fails before anything useful happened.
const ErrorMessage = "❌ Sorry, there was an error processing your voice message. Please try again."

// maxTranscriptRunes keeps the final message under Telegram's 4096 character
// limit together with the receipt details.
const maxTranscriptRunes = 3500

// Messenger sends and edits chat messages. Text is markdown.
type Messenger interface {
	SendText(chatID int64, text string) (int, error)
	EditText(chatID int64, messageID int, text string) error
}

// Downloader fetches a remote file into dst and returns the bytes written.
type Downloader interface {
	Download(ctx context.Context, fileID, dst string) (int64, error)
}

// ScratchStore hands out per-run scratch locations.
type ScratchStore interface {
	NewScratch(userID int64, receivedAt time.Time) (*media.Scratch, error)
}

// Authorizer decides whether a sender may use the paid APIs.
type Authorizer interface {
	IsAuthorized(userID int64, displayName string) bool
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) stt.Result
}

// RecordCreator saves a transcript.
type RecordCreator interface {
	CreateRecord(ctx context.Context, transcript string, durationSeconds int, authorLabel string) notion.Result
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Gate        Authorizer
	Messenger   Messenger
	Downloader  Downloader
	Scratch     ScratchStore
	Transcriber Transcriber
	Store       RecordCreator
}

// Pipeline processes voice messages one at a time per call. It holds no
// per-run state, so concurrent Runs are safe.
type Pipeline struct {
	deps Deps
}

// New creates a pipeline.
func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// run is the mutable state of one Run.
type run struct {
	msg       types.VoiceMessage
	scratch   *media.Scratch
	size      int64
	statusID  int // interim message, 0 when none was sent
	responded bool
}

// Run processes msg to completion. Every call ends with exactly one terminal
// message to the sender; stage failures never escape as errors or panics.
func (p *Pipeline) Run(ctx context.Context, msg types.VoiceMessage) (out Outcome) {
	start := time.Now()
	r := &run{msg: msg}
	sender := msg.Sender.DisplayName()

	defer func() {
		if rec := recover(); rec != nil {
			L_error("pipeline: panic", "panic", rec, "userID", msg.Sender.ID, "stack", string(debug.Stack()))
			out = Outcome{State: StatePanicked, Reason: fmt.Sprint(rec)}
			if !r.responded {
				p.respond(r, ErrorMessage)
			}
		}
		MetricOutcome("pipeline", "run", out.State.String())
		if out.State.Delivered() {
			MetricInc("pipeline", "delivered")
		}
		MetricSince("pipeline", "run", start)
		L_info("pipeline: finished", "state", out.State, "userID", msg.Sender.ID, "elapsed", time.Since(start).Round(time.Millisecond))
	}()

	MetricInc("pipeline", "received")
	L_info("pipeline: voice message received", "from", sender, "userID", msg.Sender.ID, "duration", msg.Duration)

	if !p.deps.Gate.IsAuthorized(msg.Sender.ID, sender) {
		p.respond(r, auth.UnauthorizedMessage)
		return Outcome{State: StateUnauthorized}
	}

	if err := p.download(ctx, r); err != nil {
		L_error("pipeline: download failed", "fileID", msg.FileID, "error", err)
		MetricFailWithReason("pipeline", "download", "error")
		r.scratch.Remove()
		p.respond(r, ErrorMessage)
		return Outcome{State: StateDownloadFailed, Reason: err.Error()}
	}
	MetricSuccess("pipeline", "download")

	details := receiptDetails(r)
	id, err := p.deps.Messenger.SendText(msg.ChatID, ReceivedHeader+details+"\n\n🔄 Transcribing audio...")
	if err != nil {
		L_warn("pipeline: interim message failed, final result will be sent as a new message", "chatID", msg.ChatID, "error", err)
	} else {
		r.statusID = id
	}

	var transcript string
	switch res := p.deps.Transcriber.Transcribe(ctx, r.scratch.Path).(type) {
	case stt.Transcript:
		transcript = res.Text
	case stt.Failure:
		L_warn("pipeline: transcription failed, keeping audio", "kind", res.Kind, "reason", res.Reason, "file", r.scratch.Path)
		p.respond(r, ReceivedHeader+details+"\n\n"+transcriptionFailure(res))
		return Outcome{State: StateTranscriptionFailed, Reason: res.Reason}
	}
	defer r.scratch.Remove()

	var b strings.Builder
	b.WriteString(ProcessedHeader)
	b.WriteString(details)
	b.WriteString("\n\n📝 **Transcript:**\n")
	b.WriteString(telegram.EscapeMarkdown(displayTranscript(transcript)))

	out = Outcome{State: StateCompleted, Transcript: transcript}
	switch res := p.deps.Store.CreateRecord(ctx, transcript, msg.Duration, sender).(type) {
	case notion.Created:
		out.RecordURL = res.URL
		fmt.Fprintf(&b, "\n\n📔 **Saved to Notion:** [View Page](%s)", res.URL)
	case notion.Failure:
		L_warn("pipeline: notion save failed", "kind", res.Kind, "reason", res.Reason)
		out.State = StateStoreFailed
		out.Reason = res.Reason
		fmt.Fprintf(&b, "\n\n⚠️ **Notion save failed:** %s", telegram.EscapeMarkdown(res.Reason))
	}

	p.respond(r, b.String())
	return out
}

func (p *Pipeline) download(ctx context.Context, r *run) error {
	msg := r.msg
	sc, err := p.deps.Scratch.NewScratch(msg.Sender.ID, msg.ReceivedAt)
	if err != nil {
		return err
	}
	r.scratch = sc

	start := time.Now()
	n, err := p.deps.Downloader.Download(ctx, msg.FileID, sc.Path)
	MetricSince("pipeline", "download", start)
	if err != nil {
		return err
	}
	r.size = n

	mime := msg.MimeType
	if detected, err := media.DetectFile(sc.Path); err == nil {
		mime = detected
	}
	L_debug("pipeline: voice downloaded",
		"file", sc.Path,
		"duration", msg.Duration,
		"reportedSize", msg.ReportedSize,
		"actualSize", n,
		"mime", mime,
		"fileID", msg.FileID,
		"fileUniqueID", msg.FileUniqueID)
	if msg.ReportedSize > 0 && msg.ReportedSize != n {
		L_warn("pipeline: downloaded size differs from reported size", "reported", msg.ReportedSize, "actual", n)
	}
	return nil
}

// respond edits the interim message, or sends a new one when there is none
// or the edit fails.
func (p *Pipeline) respond(r *run, text string) {
	r.responded = true
	chatID := r.msg.ChatID
	if r.statusID != 0 {
		err := p.deps.Messenger.EditText(chatID, r.statusID, text)
		if err == nil {
			return
		}
		L_warn("pipeline: edit failed, sending a new message", "chatID", chatID, "messageID", r.statusID, "error", err)
	}
	if _, err := p.deps.Messenger.SendText(chatID, text); err != nil {
		L_error("pipeline: could not deliver response", "chatID", chatID, "error", err)
		MetricFail("pipeline", "respond")
	}
}
