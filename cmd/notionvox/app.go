package main

import (
	"context"
	"time"

	"github.com/roelfdiedericks/notionvox/internal/auth"
	"github.com/roelfdiedericks/notionvox/internal/commands"
	"github.com/roelfdiedericks/notionvox/internal/config"
	"github.com/roelfdiedericks/notionvox/internal/gateway"
	"github.com/roelfdiedericks/notionvox/internal/llm"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/media"
	. "github.com/roelfdiedericks/notionvox/internal/metrics"
	"github.com/roelfdiedericks/notionvox/internal/notion"
	"github.com/roelfdiedericks/notionvox/internal/pipeline"
	"github.com/roelfdiedericks/notionvox/internal/stt"
	"github.com/roelfdiedericks/notionvox/internal/telegram"
	"github.com/roelfdiedericks/notionvox/internal/titler"
)

// loadConfig loads and validates the config and applies its logging settings.
func loadConfig(g *Globals) (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	Init(cfg.Logging.Build())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is every long-lived component, wired together.
type app struct {
	cfg         *config.Config
	bot         *telegram.Bot
	media       *media.Store
	transcriber *stt.Transcriber
	gate        *auth.Holder
	gateway     *gateway.Gateway
}

type appOptions struct {
	offline     bool // skip getMe; webhook and lambda modes
	pollTimeout time.Duration
}

func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	if err := OpenStore(cfg.Metrics); err != nil {
		L_warn("metrics: persistence disabled", "error", err)
	}

	store, err := media.NewStore(cfg.Media)
	if err != nil {
		return nil, err
	}

	bot, err := telegram.New(telegram.Options{
		Token:       cfg.Telegram.BotToken,
		PollTimeout: opts.pollTimeout,
		Offline:     opts.offline,
		MaxFileSize: store.MaxSize(),
	})
	if err != nil {
		return nil, err
	}

	sttProvider, err := stt.NewProvider(cfg.STT)
	if err != nil {
		L_error("stt: provider unavailable, transcription disabled", "error", err)
		sttProvider = nil
	}
	transcriber := stt.NewTranscriber(sttProvider, cfg.STT.FFmpegPath)

	llmProvider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		L_error("llm: provider unavailable, titles fall back to the transcript", "error", err)
		llmProvider = nil
	}

	gate := auth.NewHolder(auth.NewGate(cfg.Telegram.AllowedUsers))
	p := pipeline.New(pipeline.Deps{
		Gate:        gate,
		Messenger:   bot,
		Downloader:  bot,
		Scratch:     store,
		Transcriber: transcriber,
		Store:       notion.New(cfg.Notion, titler.New(llmProvider)),
	})
	gw := gateway.New(p, commands.NewManager(bot.Username()), gate, bot, cfg.Environment)

	L_info("notionvox: ready",
		"environment", cfg.Environment,
		"allowedUsers", gate.Current().Len(),
		"stt", orNone(transcriber.ProviderName()),
		"llm", orNone(cfg.LLM.ResolveProvider()),
		"notion", cfg.Notion.Configured())

	return &app{
		cfg:         cfg,
		bot:         bot,
		media:       store,
		transcriber: transcriber,
		gate:        gate,
		gateway:     gw,
	}, nil
}

// startBackground runs the scratch sweep and the config watcher until ctx ends.
func (a *app) startBackground(ctx context.Context) {
	if err := a.media.Start(); err != nil {
		L_warn("media: sweep not scheduled", "error", err)
	}
	if a.cfg.Path() == "" {
		return
	}
	go func() {
		err := config.Watch(ctx, a.cfg.Path(), func(c *config.Config) {
			a.gate.Swap(auth.NewGate(c.Telegram.AllowedUsers))
			SetLevel(ParseLevel(c.Logging.Level))
		})
		if err != nil {
			L_warn("config: watcher stopped", "error", err)
		}
	}()
}

func (a *app) Close() {
	a.media.Close()
	if err := a.transcriber.Close(); err != nil {
		L_warn("stt: close failed", "error", err)
	}
	if err := CloseStore(); err != nil {
		L_warn("metrics: close failed", "error", err)
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
