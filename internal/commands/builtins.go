package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/roelfdiedericks/notionvox/internal/telegram"
)

func registerBuiltins(m *Manager) {
	m.Register(&Command{
		Name:        "/start",
		Description: "Start the bot",
		Handler:     handleStart,
	})
	m.Register(&Command{
		Name:        "/help",
		Description: "Show this help message",
		Handler:     handleHelp,
	})
	m.Register(&Command{
		Name:        "/myid",
		Description: "Show your Telegram user ID",
		Aliases:     []string{"/id"},
		Public:      true,
		Handler:     handleMyID,
	})
}

// PromptMessage answers text that is not a command.
const PromptMessage = "🎤 Please send me a voice message to log its details!\nUse /help for more information."

const welcomeMessage = "🎤 Welcome to NotionVox!\n\n" +
	"Send me a voice message and I'll:\n" +
	"• Log detailed information about it\n" +
	"• Transcribe it with Whisper\n" +
	"• Generate a short title (3-8 words)\n" +
	"• Save it to your Notion database\n\n" +
	"Use /help for more information."

const usageMessage = "📝 How to use:\n" +
	"• Send a voice message or an audio file\n" +
	"• The bot downloads and transcribes it\n" +
	"• A title is generated from the transcript\n" +
	"• Everything gets saved to your Notion database\n" +
	"• You'll receive the transcript and the Notion link"

func handleStart(ctx context.Context, args *Args) *Result {
	return &Result{Markdown: welcomeMessage}
}

func handleHelp(ctx context.Context, args *Args) *Result {
	var md strings.Builder
	md.WriteString("🤖 **NotionVox Commands:**\n\n")
	for _, cmd := range args.Manager.List() {
		fmt.Fprintf(&md, "%s \\- %s\n", cmd.Name, cmd.Description)
	}
	md.WriteString("\n")
	md.WriteString(usageMessage)
	return &Result{Markdown: md.String()}
}

func handleMyID(ctx context.Context, args *Args) *Result {
	s := args.Sender
	var md strings.Builder
	fmt.Fprintf(&md, "🆔 Your Telegram user ID: `%d`\n", s.ID)
	fmt.Fprintf(&md, "👤 Name: %s\n", telegram.EscapeMarkdown(s.DisplayName()))
	if s.Username != "" {
		fmt.Fprintf(&md, "🔖 Username: @%s\n", telegram.EscapeMarkdown(s.Username))
	}
	md.WriteString("\nTo use this bot, send this ID to the owner and ask to be added to the allow-list.")
	return &Result{Markdown: md.String()}
}
