package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/roelfdiedericks/notionvox/internal/media"
	"github.com/roelfdiedericks/notionvox/internal/types"
)

// Normalize reduces a Telegram update to what the bot acts on.
// Voice notes, audio files and audio documents become voice payloads;
// anything that is not a new message is ignored.
func Normalize(upd tele.Update) types.Update {
	out := types.Update{ID: upd.ID, Kind: types.UpdateIgnored}
	m := upd.Message
	if m == nil || m.Chat == nil {
		return out
	}

	out.ChatID = m.Chat.ID
	out.MessageID = m.ID
	if m.Sender != nil {
		out.Sender = types.Sender{
			ID:        m.Sender.ID,
			FirstName: m.Sender.FirstName,
			LastName:  m.Sender.LastName,
			Username:  m.Sender.Username,
		}
	}

	if v := voiceOf(m); v != nil {
		v.UpdateID = upd.ID
		v.ChatID = out.ChatID
		v.MessageID = m.ID
		v.Sender = out.Sender
		v.ReceivedAt = messageTime(m)
		out.Kind = types.UpdateVoice
		out.Voice = v
		return out
	}

	if text := strings.TrimSpace(m.Text); text != "" {
		out.Kind = types.UpdateText
		out.Text = text
	}
	return out
}

func voiceOf(m *tele.Message) *types.VoiceMessage {
	switch {
	case m.Voice != nil:
		return &types.VoiceMessage{
			FileID:       m.Voice.FileID,
			FileUniqueID: m.Voice.UniqueID,
			Duration:     m.Voice.Duration,
			ReportedSize: m.Voice.FileSize,
			MimeType:     m.Voice.MIME,
		}
	case m.Audio != nil:
		return &types.VoiceMessage{
			FileID:       m.Audio.FileID,
			FileUniqueID: m.Audio.UniqueID,
			Duration:     m.Audio.Duration,
			ReportedSize: m.Audio.FileSize,
			MimeType:     m.Audio.MIME,
			FileName:     m.Audio.FileName,
		}
	case m.Document != nil && media.IsAudio(m.Document.MIME):
		return &types.VoiceMessage{
			FileID:       m.Document.FileID,
			FileUniqueID: m.Document.UniqueID,
			ReportedSize: m.Document.FileSize,
			MimeType:     m.Document.MIME,
			FileName:     m.Document.FileName,
		}
	}
	return nil
}

func messageTime(m *tele.Message) time.Time {
	if m.Unixtime == 0 {
		return time.Now()
	}
	return m.Time()
}
