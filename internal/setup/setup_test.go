package setup

import (
	"testing"

	"github.com/roelfdiedericks/notionvox/internal/config"
)

func TestBuildConfig(t *testing.T) {
	w := NewWizard("/tmp/notionvox.json", nil)
	w.telegramToken = " 123:abc "
	w.allowedUsers = "42, 7"
	w.sttProvider = "openai"
	w.openaiKey = "sk-test"
	w.notionToken = "secret_n"
	w.notionDatabase = "db-1"
	w.webhookURL = "https://example.com/webhook"

	cfg := w.buildConfig()

	if cfg.Telegram.BotToken != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.BotToken)
	}
	if len(cfg.Telegram.AllowedUsers) != 2 || cfg.Telegram.AllowedUsers[0] != 42 {
		t.Errorf("allowed = %v", cfg.Telegram.AllowedUsers)
	}
	if cfg.STT.ResolveProvider() != "openai" || cfg.LLM.ResolveProvider() != "openai" {
		t.Errorf("providers = %q %q", cfg.STT.ResolveProvider(), cfg.LLM.ResolveProvider())
	}
	if !cfg.Notion.Configured() {
		t.Error("notion not configured")
	}
	if len(cfg.Telegram.WebhookSecret) != 32 {
		t.Errorf("webhook secret = %q, want a generated 32 char secret", cfg.Telegram.WebhookSecret)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestBuildConfigKeepsBase(t *testing.T) {
	base := config.Defaults()
	base.Environment = "production"
	base.HTTP.Listen = ":9000"
	base.Telegram.WebhookSecret = "keepme"

	w := NewWizard("x.json", &base)
	w.telegramToken = "t"
	w.webhookURL = "https://example.com/webhook"
	cfg := w.buildConfig()

	if cfg.Environment != "production" || cfg.HTTP.Listen != ":9000" || cfg.Telegram.WebhookSecret != "keepme" {
		t.Errorf("base settings lost: %+v", cfg)
	}
	if base.Telegram.BotToken != "" {
		t.Error("base config was mutated")
	}
}

func TestValidateUserIDs(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"42", false},
		{"42, 7,", false},
		{"42, bob", true},
	}
	for _, tt := range tests {
		if err := validateUserIDs(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("validateUserIDs(%q) err = %v", tt.in, err)
		}
	}
}

func TestFormatUserIDs(t *testing.T) {
	if got := formatUserIDs([]int64{1, 22}); got != "1, 22" {
		t.Errorf("got %q", got)
	}
}
