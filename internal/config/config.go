// Package config loads the NotionVox configuration from a JSON, YAML or TOML
// file plus environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roelfdiedericks/notionvox/internal/llm"
	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/media"
	"github.com/roelfdiedericks/notionvox/internal/metrics"
	"github.com/roelfdiedericks/notionvox/internal/notion"
	"github.com/roelfdiedericks/notionvox/internal/paths"
	"github.com/roelfdiedericks/notionvox/internal/stt"
)

// ErrNoBotToken is returned by Validate when the Telegram token is missing.
var ErrNoBotToken = errors.New("telegram bot token is required (telegram.botToken or TELEGRAM_BOT_TOKEN)")

// Config is the complete NotionVox configuration.
type Config struct {
	Environment string                `json:"environment"`
	Telegram    TelegramConfig        `json:"telegram"`
	HTTP        HTTPConfig            `json:"http"`
	STT         stt.Config            `json:"stt"`
	LLM         llm.Config            `json:"llm"`
	Notion      notion.Config         `json:"notion"`
	Media       media.Config          `json:"media"`
	Metrics     metrics.PersistConfig `json:"metrics"`
	Logging     LoggingConfig         `json:"logging"`

	path string
}

// TelegramConfig holds the bot credential and access list.
type TelegramConfig struct {
	BotToken           string  `json:"botToken"`
	AllowedUsers       []int64 `json:"allowedUsers"`
	WebhookURL         string  `json:"webhookURL,omitempty"`    // public URL registered with `webhook set`
	WebhookSecret      string  `json:"webhookSecret,omitempty"` // X-Telegram-Bot-Api-Secret-Token
	PollTimeoutSeconds int     `json:"pollTimeoutSeconds"`      // long-poll timeout, default 10
}

// HTTPConfig configures the webhook server.
type HTTPConfig struct {
	Listen string `json:"listen"` // default ":8080"
	// TrustedProxies are the reverse proxies (IPs or CIDRs) allowed to set
	// X-Forwarded-For. Empty means the peer address is used as is.
	TrustedProxies []string `json:"trustedProxies,omitempty"`
}

// LoggingConfig is the user-facing side of logging.LogConfig.
type LoggingConfig struct {
	Level      string `json:"level"` // trace, debug, info, warn, error
	JSON       bool   `json:"json"`
	ShowCaller bool   `json:"showCaller"`
}

// Build converts to the logger's configuration.
func (l LoggingConfig) Build() *LogConfig {
	cfg := DefaultLogConfig()
	cfg.Level = ParseLevel(l.Level)
	cfg.JSON = l.JSON
	cfg.ShowCaller = l.ShowCaller
	return cfg
}

// Defaults returns the values used for anything the file and environment leave unset.
func Defaults() Config {
	return Config{
		Environment: "development",
		Telegram:    TelegramConfig{PollTimeoutSeconds: 10},
		HTTP:        HTTPConfig{Listen: ":8080"},
		Logging:     LoggingConfig{Level: "info"},
	}
}

// Path returns the file the config was loaded from ("" if none).
func (c *Config) Path() string {
	return c.path
}

// Validate checks the settings the bot cannot run without.
// Missing STT, LLM or Notion credentials only disable those features.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return ErrNoBotToken
	}
	if len(c.Telegram.AllowedUsers) == 0 {
		L_warn("config: telegram.allowedUsers is empty, every voice message will be rejected")
	}
	return nil
}

// Load reads the config file at path (searching the default locations when
// path is empty), loads .env, applies environment overrides and defaults.
// A missing file is not an error: the environment alone can configure the bot.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		L_warn("config: failed to load .env", "error", err)
	}
	return load(path, os.LookupEnv)
}

type lookupFunc func(key string) (string, bool)

func load(path string, lookup lookupFunc) (*Config, error) {
	if path == "" {
		found, err := paths.ConfigPath()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := &Config{}
	if path != "" {
		expanded, err := paths.ExpandTilde(path)
		if err != nil {
			return nil, err
		}
		path = expanded
		if err := readFile(path, lookup, cfg); err != nil {
			return nil, err
		}
		L_debug("config: loaded file", "path", path)
	} else {
		L_debug("config: no config file found, using environment only")
	}

	applyEnv(cfg, lookup)

	if err := mergo.Merge(cfg, Defaults()); err != nil {
		return nil, fmt.Errorf("config: apply defaults: %w", err)
	}
	cfg.path = path
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandRefs replaces ${VAR} with the variable's value (empty when unset).
func expandRefs(data []byte, lookup lookupFunc) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		v, _ := lookup(string(m[2 : len(m)-1]))
		return []byte(v)
	})
}

// readFile decodes any supported format into cfg. YAML and TOML are decoded
// generically and re-encoded as JSON so the json tags are the only schema.
func readFile(path string, lookup lookupFunc, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	data = expandRefs(data, lookup)

	var generic map[string]interface{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", "":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
		return nil
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &generic); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config: unsupported file type %q", ext)
	}

	asJSON, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("config: convert %s: %w", path, err)
	}
	if err := json.Unmarshal(asJSON, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables on cfg. Set variables win over the file.
func applyEnv(cfg *Config, lookup lookupFunc) {
	str := func(key string, dst ...*string) {
		if v, ok := lookup(key); ok && v != "" {
			for _, d := range dst {
				*d = v
			}
		}
	}

	str("ENVIRONMENT", &cfg.Environment)
	str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	str("WEBHOOK_URL", &cfg.Telegram.WebhookURL)
	str("WEBHOOK_SECRET", &cfg.Telegram.WebhookSecret)
	str("LISTEN_ADDR", &cfg.HTTP.Listen)
	str("MEDIA_DIR", &cfg.Media.Dir)
	str("LOG_LEVEL", &cfg.Logging.Level)

	// One OpenAI key serves both transcription and titling.
	str("OPENAI_API_KEY", &cfg.STT.OpenAI.APIKey, &cfg.LLM.OpenAI.APIKey)
	str("GROQ_API_KEY", &cfg.STT.Groq.APIKey)
	str("ANTHROPIC_API_KEY", &cfg.LLM.Anthropic.APIKey)
	str("NOTION_TOKEN", &cfg.Notion.Token)
	str("NOTION_DATABASE_ID", &cfg.Notion.DatabaseID)

	if v, ok := lookup("TRUSTED_PROXIES"); ok && strings.TrimSpace(v) != "" {
		cfg.HTTP.TrustedProxies = splitList(v)
	}
	if v, ok := lookup("ALLOWED_USER_IDS"); ok && strings.TrimSpace(v) != "" {
		cfg.Telegram.AllowedUsers = ParseUserIDs(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseUserIDs parses a comma separated list of numeric Telegram IDs.
// Invalid entries are logged and skipped.
func ParseUserIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			L_warn("config: ignoring invalid user ID", "value", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Masked returns a copy safe to print: every credential is shortened.
func (c Config) Masked() Config {
	c.Telegram.BotToken = mask(c.Telegram.BotToken)
	c.Telegram.WebhookSecret = mask(c.Telegram.WebhookSecret)
	c.STT.OpenAI.APIKey = mask(c.STT.OpenAI.APIKey)
	c.STT.Groq.APIKey = mask(c.STT.Groq.APIKey)
	c.LLM.OpenAI.APIKey = mask(c.LLM.OpenAI.APIKey)
	c.LLM.Anthropic.APIKey = mask(c.LLM.Anthropic.APIKey)
	c.Notion.Token = mask(c.Notion.Token)
	c.Telegram.AllowedUsers = append([]int64(nil), c.Telegram.AllowedUsers...)
	c.HTTP.TrustedProxies = append([]string(nil), c.HTTP.TrustedProxies...)
	return c
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-2:]
	}
}
