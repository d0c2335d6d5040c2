// Package telegram adapts telebot to the voice pipeline: sending and editing
// status messages, downloading voice files, long polling and webhook admin.
package telegram

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/media"
)

// Options configures the bot client.
type Options struct {
	Token       string
	APIURL      string        // default https://api.telegram.org
	PollTimeout time.Duration // long-poll timeout, poll mode only
	// Offline skips the getMe call at startup. Used for webhook and Lambda
	// handlers where the bot username is not needed up front.
	Offline bool
	MaxFileSize int64
}

// Bot is the Telegram side of NotionVox.
type Bot struct {
	bot        *tele.Bot
	downloader *media.TelegramDownloader
}

// New creates a bot client.
func New(opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("telegram bot token not configured")
	}

	pref := tele.Settings{
		Token:   opts.Token,
		URL:     opts.APIURL,
		Offline: opts.Offline,
	}
	if opts.PollTimeout > 0 {
		pref.Poller = &tele.LongPoller{
			Timeout:        opts.PollTimeout,
			AllowedUpdates: []string{"message"},
		}
	}

	L_debug("telegram: creating bot", "tokenLength", len(opts.Token), "offline", opts.Offline)
	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	if !opts.Offline {
		L_debug("telegram: bot created", "username", bot.Me.Username, "id", bot.Me.ID)
	}

	return &Bot{
		bot:        bot,
		downloader: media.NewTelegramDownloader(bot, opts.MaxFileSize),
	}, nil
}

// Username returns the bot's @username without the @ ("" when offline).
func (b *Bot) Username() string {
	if b.bot.Me == nil {
		return ""
	}
	return b.bot.Me.Username
}

// SendText sends markdown text as Telegram HTML, falling back to plain text.
// Returns the message ID for later edits.
func (b *Bot) SendText(chatID int64, text string) (int, error) {
	chat := &tele.Chat{ID: chatID}

	msg, err := b.bot.Send(chat, FormatMessage(text), &tele.SendOptions{ParseMode: tele.ModeHTML})
	if err != nil {
		L_debug("telegram: HTML send failed, falling back to plain text", "error", err)
		msg, err = b.bot.Send(chat, PlainText(text))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to send text: %w", err)
	}

	L_debug("telegram: sent text message", "chatID", chatID, "msgID", msg.ID, "length", len(text))
	return msg.ID, nil
}

// EditText replaces the text of an earlier message.
func (b *Bot) EditText(chatID int64, messageID int, text string) error {
	msg := &tele.Message{ID: messageID, Chat: &tele.Chat{ID: chatID}}

	_, err := b.bot.Edit(msg, FormatMessage(text), &tele.SendOptions{ParseMode: tele.ModeHTML})
	if err != nil {
		L_debug("telegram: HTML edit failed, falling back to plain text", "error", err)
		_, err = b.bot.Edit(msg, PlainText(text))
	}
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}

	L_debug("telegram: edited message", "chatID", chatID, "msgID", messageID)
	return nil
}

// Download fetches a voice file into dst.
func (b *Bot) Download(ctx context.Context, fileID, dst string) (int64, error) {
	return b.downloader.Download(ctx, fileID, dst)
}

// TestToken validates a bot token by calling getMe and returns the bot username.
func TestToken(token, apiURL string) (string, error) {
	bot, err := tele.NewBot(tele.Settings{Token: token, URL: apiURL})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	L_debug("telegram: validated token", "username", bot.Me.Username)
	return bot.Me.Username, nil
}
