package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roelfdiedericks/notionvox/internal/config"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/paths"
	"github.com/roelfdiedericks/notionvox/internal/setup"
	"github.com/roelfdiedericks/notionvox/internal/stt"
	"github.com/roelfdiedericks/notionvox/internal/telegram"
)

// WebhookCmd groups the webhook admin commands.
type WebhookCmd struct {
	Set    WebhookSetCmd    `cmd:"" help:"Register telegram.webhookURL with Telegram."`
	Info   WebhookInfoCmd   `cmd:"" help:"Show the registered webhook."`
	Delete WebhookDeleteCmd `cmd:"" help:"Remove the webhook (needed before polling)."`
}

type WebhookSetCmd struct {
	URL         string `arg:"" optional:"" help:"Public URL (default: telegram.webhookURL)."`
	DropPending bool   `name:"drop-pending" help:"Discard updates queued at Telegram."`
}

func adminBot(g *Globals) (*config.Config, *telegram.Bot, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, nil, err
	}
	bot, err := telegram.New(telegram.Options{Token: cfg.Telegram.BotToken, Offline: true})
	if err != nil {
		return nil, nil, err
	}
	return cfg, bot, nil
}

func (c *WebhookSetCmd) Run(g *Globals) error {
	cfg, bot, err := adminBot(g)
	if err != nil {
		return err
	}
	url := c.URL
	if url == "" {
		url = cfg.Telegram.WebhookURL
	}
	if url == "" {
		return errors.New("no webhook URL: pass one or set telegram.webhookURL")
	}
	if err := bot.SetWebhook(url, cfg.Telegram.WebhookSecret, c.DropPending); err != nil {
		return err
	}
	fmt.Printf("✓ Webhook set: %s\n", url)
	if cfg.Telegram.WebhookSecret == "" {
		fmt.Println("⚠ No webhook secret configured; consider setting telegram.webhookSecret")
	}
	return nil
}

type WebhookInfoCmd struct{}

func (c *WebhookInfoCmd) Run(g *Globals) error {
	_, bot, err := adminBot(g)
	if err != nil {
		return err
	}
	info, err := bot.GetWebhook()
	if err != nil {
		return err
	}
	if info.URL == "" {
		fmt.Println("No webhook registered (long polling mode).")
		return nil
	}
	fmt.Printf("URL:             %s\n", info.URL)
	fmt.Printf("Pending updates: %d\n", info.PendingUpdates)
	if info.LastError != "" {
		fmt.Printf("Last error:      %s\n", info.LastError)
	}
	return nil
}

type WebhookDeleteCmd struct {
	DropPending bool `name:"drop-pending" help:"Discard updates queued at Telegram."`
}

func (c *WebhookDeleteCmd) Run(g *Globals) error {
	_, bot, err := adminBot(g)
	if err != nil {
		return err
	}
	if err := bot.DeleteWebhook(c.DropPending); err != nil {
		return err
	}
	fmt.Println("✓ Webhook deleted")
	return nil
}

// SetupCmd runs the configuration wizard.
type SetupCmd struct{}

func (c *SetupCmd) Run(g *Globals) error {
	path := g.Config
	if path == "" {
		found, err := paths.ConfigPath()
		if err != nil {
			return err
		}
		path = found
	}
	if path == "" {
		p, err := paths.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if filepath.Ext(path) != ".json" {
		return fmt.Errorf("setup writes JSON; %s is not a .json file, pass --config with a .json path", path)
	}
	if err := paths.EnsureParentDir(path); err != nil {
		return err
	}

	var base *config.Config
	if _, err := os.Stat(path); err == nil {
		if base, err = config.Load(path); err != nil {
			return err
		}
	}
	return setup.NewWizard(path, base).Run()
}

// ConfigCmd prints the effective configuration.
type ConfigCmd struct{}

func (c *ConfigCmd) Run(g *Globals) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	if cfg.Path() != "" {
		L_info("config: loaded", "path", cfg.Path())
	}
	L_object("config", cfg.Masked())
	return cfg.Validate()
}

// ModelsCmd manages whisper.cpp models for the local provider.
type ModelsCmd struct {
	List     ModelsListCmd     `cmd:"" default:"1" help:"List available models."`
	Download ModelsDownloadCmd `cmd:"" help:"Download a model."`
}

type ModelsListCmd struct {
	Dir string `help:"Models directory." type:"path"`
}

func (c *ModelsListCmd) Run(g *Globals) error {
	dir := c.Dir
	if dir == "" {
		dir = stt.DefaultModelsDir()
	}
	for _, m := range stt.WhisperModels {
		mark := " "
		if stt.IsModelDownloaded(dir, m.Name) {
			mark = "✓"
		}
		fmt.Printf("%s %-28s %-22s %s\n", mark, m.Name, m.Label, m.Size())
	}
	fmt.Printf("\nModels directory: %s\n", dir)
	return nil
}

type ModelsDownloadCmd struct {
	Name string `arg:"" help:"Model file name, e.g. ggml-base.en.bin."`
	Dir  string `help:"Models directory." type:"path"`
}

func (c *ModelsDownloadCmd) Run(g *Globals) error {
	model := stt.GetModel(c.Name)
	if model == nil {
		return fmt.Errorf("unknown model %q, see `notionvox models list`", c.Name)
	}
	dir := c.Dir
	if dir == "" {
		dir = stt.DefaultModelsDir()
	}
	path, err := stt.DownloadModel(context.Background(), model, dir)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Downloaded %s\n", path)
	fmt.Println("Set stt.provider to \"whispercpp\" and stt.whispercpp.model to use it.")
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("notionvox %s\n", version)
	return nil
}
