// Package setup is the interactive configuration wizard behind `notionvox setup`.
package setup

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/roelfdiedericks/notionvox/internal/config"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// Wizard collects answers and turns them into a config file.
type Wizard struct {
	path string
	base *config.Config

	telegramToken string
	allowedUsers  string
	webhookURL    string
	webhookSecret string

	sttProvider  string
	openaiKey    string
	groqKey      string
	anthropicKey string

	notionToken    string
	notionDatabase string

	// test hooks
	testTelegram func(token string) (string, error)
	testNotion   func(token, databaseID string) (string, error)
}

// NewWizard starts from base, which may be nil, and writes to path.
func NewWizard(path string, base *config.Config) *Wizard {
	if base == nil {
		d := config.Defaults()
		base = &d
	}
	w := &Wizard{
		path:           path,
		base:           base,
		telegramToken:  base.Telegram.BotToken,
		allowedUsers:   formatUserIDs(base.Telegram.AllowedUsers),
		webhookURL:     base.Telegram.WebhookURL,
		webhookSecret:  base.Telegram.WebhookSecret,
		sttProvider:    base.STT.ResolveProvider(),
		openaiKey:      base.STT.OpenAI.APIKey,
		groqKey:        base.STT.Groq.APIKey,
		anthropicKey:   base.LLM.Anthropic.APIKey,
		notionToken:    base.Notion.Token,
		notionDatabase: base.Notion.DatabaseID,
		testTelegram:   TestTelegramToken,
		testNotion:     TestNotionDatabase,
	}
	if w.sttProvider == "" {
		w.sttProvider = "openai"
	}
	return w
}

func newForm(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).WithTheme(huh.ThemeCharm())
}

func isUserAbort(err error) bool {
	return errors.Is(err, huh.ErrUserAborted)
}

// Run executes the wizard and saves the result.
func (w *Wizard) Run() error {
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════╗")
	fmt.Println("║       Welcome to NotionVox Setup       ║")
	fmt.Println("╚════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Config file: %s\n\n", w.path)

	steps := []func() error{w.askTelegram, w.askTranscription, w.askNotion, w.askWebhook}
	for _, step := range steps {
		if err := step(); err != nil {
			if isUserAbort(err) {
				fmt.Println("Setup cancelled. No changes were saved.")
				return nil
			}
			return err
		}
	}
	return w.reviewAndSave()
}

func (w *Wizard) askTelegram() error {
	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram Bot Token").
				Description("Get this from @BotFather on Telegram").
				Validate(required("bot token")).
				Value(&w.telegramToken),
			huh.NewInput().
				Title("Allowed user IDs").
				Description("Comma separated. Users can send /myid to the bot to find theirs").
				Validate(validateUserIDs).
				Value(&w.allowedUsers),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	fmt.Println("Testing Telegram token...")
	if username, err := w.testTelegram(w.telegramToken); err != nil {
		fmt.Printf("⚠ Token validation failed: %s\n", err)
	} else {
		fmt.Printf("✓ Bot username: @%s\n", username)
	}
	return nil
}

func (w *Wizard) askTranscription() error {
	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Speech-to-text provider").
				Options(
					huh.NewOption("OpenAI Whisper API", "openai"),
					huh.NewOption("Groq Whisper API", "groq"),
					huh.NewOption("Local whisper.cpp (configure the model in the file)", "whispercpp"),
				).
				Value(&w.sttProvider),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API key").
				Description("Used for transcription and titles. Leave empty to skip").
				EchoMode(huh.EchoModePassword).
				Value(&w.openaiKey),
		).WithHideFunc(func() bool { return w.sttProvider != "openai" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Groq API key").
				EchoMode(huh.EchoModePassword).
				Value(&w.groqKey),
		).WithHideFunc(func() bool { return w.sttProvider != "groq" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Anthropic API key (optional)").
				Description("Titles are generated with Claude when no OpenAI key is set").
				EchoMode(huh.EchoModePassword).
				Value(&w.anthropicKey),
		).WithHideFunc(func() bool { return w.openaiKey != "" }),
	)
	return form.Run()
}

func (w *Wizard) askNotion() error {
	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Notion integration token").
				Description("Leave empty to only transcribe").
				EchoMode(huh.EchoModePassword).
				Value(&w.notionToken),
			huh.NewInput().
				Title("Notion database ID").
				Description("The database needs Title, Transcript, Duration and Source properties").
				Value(&w.notionDatabase),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if w.notionToken == "" || w.notionDatabase == "" {
		return nil
	}

	fmt.Println("Testing Notion access...")
	if title, err := w.testNotion(w.notionToken, w.notionDatabase); err != nil {
		fmt.Printf("⚠ Notion check failed: %s\n", err)
	} else {
		fmt.Printf("✓ Database: %s\n", title)
	}
	return nil
}

func (w *Wizard) askWebhook() error {
	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Public webhook URL").
				Description("e.g. https://example.com/webhook. Leave empty to use long polling").
				Value(&w.webhookURL),
		),
	)
	return form.Run()
}

func (w *Wizard) reviewAndSave() error {
	cfg := w.buildConfig()
	masked := cfg.Masked()

	fmt.Println()
	fmt.Println("═══════════════════════════════════════")
	fmt.Println("           Configuration Summary")
	fmt.Println("═══════════════════════════════════════")
	fmt.Println()
	fmt.Printf("Bot token:     %s\n", masked.Telegram.BotToken)
	fmt.Printf("Allowed users: %s\n", formatUserIDs(cfg.Telegram.AllowedUsers))
	fmt.Printf("Transcription: %s\n", orNone(cfg.STT.ResolveProvider()))
	fmt.Printf("Titles:        %s\n", orNone(cfg.LLM.ResolveProvider()))
	fmt.Printf("Notion:        %v\n", cfg.Notion.Configured())
	fmt.Printf("Webhook:       %s\n", orNone(cfg.Telegram.WebhookURL))
	fmt.Println()

	var save bool
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Value(&save),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !save {
		fmt.Println("Setup cancelled. No changes were saved.")
		return nil
	}

	if err := config.Save(w.path, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	L_info("setup: configuration saved", "path", w.path)
	fmt.Printf("✓ Saved %s\n", w.path)
	if cfg.Telegram.WebhookURL != "" {
		fmt.Println("Next: run `notionvox webhook set` and then `notionvox serve`.")
	} else {
		fmt.Println("Next: run `notionvox poll`.")
	}
	return nil
}

// buildConfig applies the answers to a copy of the base config.
func (w *Wizard) buildConfig() *config.Config {
	cfg := *w.base
	cfg.Telegram.BotToken = strings.TrimSpace(w.telegramToken)
	cfg.Telegram.AllowedUsers = config.ParseUserIDs(w.allowedUsers)
	cfg.Telegram.WebhookURL = strings.TrimSpace(w.webhookURL)
	cfg.Telegram.WebhookSecret = w.webhookSecret
	if cfg.Telegram.WebhookURL != "" && cfg.Telegram.WebhookSecret == "" {
		cfg.Telegram.WebhookSecret = strings.ReplaceAll(uuid.New().String(), "-", "")
	}

	cfg.STT.Provider = w.sttProvider
	cfg.STT.OpenAI.APIKey = strings.TrimSpace(w.openaiKey)
	cfg.STT.Groq.APIKey = strings.TrimSpace(w.groqKey)
	cfg.LLM.OpenAI.APIKey = cfg.STT.OpenAI.APIKey
	cfg.LLM.Anthropic.APIKey = strings.TrimSpace(w.anthropicKey)

	cfg.Notion.Token = strings.TrimSpace(w.notionToken)
	cfg.Notion.DatabaseID = strings.TrimSpace(w.notionDatabase)
	return &cfg
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func validateUserIDs(s string) error {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := strconv.ParseInt(part, 10, 64); err != nil {
			return fmt.Errorf("%q is not a numeric user ID", part)
		}
	}
	return nil
}

func formatUserIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
