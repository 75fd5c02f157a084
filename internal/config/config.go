// Package config assembles the autopost configuration from the environment
// and checks that each command has the credentials it needs.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio/pkg/config"
	"portfolio/pkg/database"
	"portfolio/pkg/email"
	"portfolio/pkg/llm"
	"portfolio/pkg/redis"
	"portfolio/pkg/search"
)

// ErrMissingCredential is returned by Validate when a required setting is
// absent. The CLI exits non-zero on it.
var ErrMissingCredential = errors.New("missing required credential")

// Command names the CLI entry point being validated.
type Command string

const (
	CommandGenerate Command = "generate"
	CommandSweep    Command = "sweep"
	CommandServe    Command = "serve"
	CommandMigrate  Command = "migrate"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Config stores environment configuration for autopost.
type Config struct {
	StoreType     string
	Database      database.Config
	MongoURI      string
	MongoDatabase string

	LLM        llm.Config
	Classifier llm.Config
	Search     search.Config
	// EnableRendering lets research fall back to a headless browser.
	EnableRendering bool
	UserAgent       string

	// Feeds overrides a pipeline's default sources, keyed by pipeline name.
	Feeds map[string][]string
	// FeedsFile is an optional YAML file of sources per pipeline.
	FeedsFile     string
	ItemDelay     time.Duration
	ApprovalGrace time.Duration
	SiteURL       string

	TelegramToken         string
	TelegramChatID        int64
	TelegramWebhookSecret string
	Email                 email.Config
	NotifyEmail           string

	Redis             redis.Config
	WebhookRateLimit  int
	WebhookRateWindow time.Duration

	PushgatewayURL string
	Port           string
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() Config {
	db := database.DefaultConfig()
	db.URL = config.GetEnv("DATABASE_URL", "")
	db.Driver = config.GetEnv("DATABASE_DRIVER", database.DriverPQ)

	return Config{
		StoreType:     strings.ToLower(config.GetEnv("STORE_TYPE", StorePostgres)),
		Database:      db,
		MongoURI:      config.GetEnv("MONGODB_URI", ""),
		MongoDatabase: config.GetEnv("MONGODB_DATABASE", "portfolio"),

		LLM:             llm.LoadConfig(),
		Classifier:      llm.LoadClassifierConfig(),
		Search:          search.LoadConfig(),
		EnableRendering: config.GetEnvBool("RESEARCH_ENABLE_RENDERING", false),
		UserAgent:       config.GetEnv("HTTP_USER_AGENT", "autopost/1.0 (+https://github.com/portfolio/autopost)"),

		Feeds: map[string][]string{
			"news":    config.GetEnvList("FEEDS_NEWS", nil),
			"deals":   config.GetEnvList("FEEDS_DEALS", nil),
			"stories": config.GetEnvList("FEEDS_STORIES", nil),
		},
		FeedsFile:     config.GetEnv("FEEDS_FILE", ""),
		ItemDelay:     config.GetEnvDuration("ITEM_DELAY", 30*time.Second),
		ApprovalGrace: config.GetEnvDuration("APPROVAL_GRACE", 15*time.Minute),
		SiteURL:       config.GetEnv("SITE_URL", ""),

		TelegramToken:         config.GetEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:        int64(config.GetEnvInt("TELEGRAM_CHAT_ID", 0)),
		TelegramWebhookSecret: config.GetEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		Email:                 email.LoadConfig(),
		NotifyEmail:           config.GetEnv("NOTIFY_EMAIL", ""),

		Redis:             redis.LoadConfig(),
		WebhookRateLimit:  config.GetEnvInt("WEBHOOK_RATE_LIMIT", 30),
		WebhookRateWindow: config.GetEnvDuration("WEBHOOK_RATE_WINDOW", time.Minute),

		PushgatewayURL: config.GetEnv("PUSHGATEWAY_URL", ""),
		Port:           config.GetEnv("PORT", "8080"),
	}
}

// GenerationEnabled reports whether a generation provider can be built.
// Ollama runs locally and needs no key.
func (c Config) GenerationEnabled() bool {
	if c.LLM.Model == "" {
		return false
	}
	return c.LLM.APIKey != "" || strings.EqualFold(c.LLM.Provider, "ollama")
}

// ResearchEnabled reports whether a search provider is configured.
func (c Config) ResearchEnabled() bool {
	return c.Search.Enabled()
}

// TelegramEnabled reports whether approvals go to Telegram.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// EmailEnabled reports whether approvals go out by mail.
func (c Config) EmailEnabled() bool {
	return c.Email.Enabled() && c.NotifyEmail != ""
}

// Validate checks the settings cmd cannot run without. Every missing key is
// named in the returned error, which wraps ErrMissingCredential.
func (c Config) Validate(cmd Command) error {
	var missing []string

	switch c.StoreType {
	case StorePostgres, StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unsupported STORE_TYPE %q", c.StoreType)
	}

	needsStore := cmd == CommandGenerate || cmd == CommandSweep || cmd == CommandServe
	if needsStore {
		missing = append(missing, c.storeMissing()...)
	}

	switch cmd {
	case CommandGenerate:
		if c.LLM.Model == "" {
			missing = append(missing, "LLM_MODEL")
		}
		if c.LLM.APIKey == "" && !strings.EqualFold(c.LLM.Provider, "ollama") {
			missing = append(missing, "LLM_API_KEY")
		}
	case CommandServe:
		if c.TelegramToken == "" {
			missing = append(missing, "TELEGRAM_BOT_TOKEN")
		}
		if c.TelegramChatID == 0 {
			missing = append(missing, "TELEGRAM_CHAT_ID")
		}
		if c.TelegramWebhookSecret == "" {
			missing = append(missing, "TELEGRAM_WEBHOOK_SECRET")
		}
	case CommandMigrate:
		if c.StoreType != StorePostgres {
			return fmt.Errorf("migrate only applies to STORE_TYPE=%s", StorePostgres)
		}
		if c.Database.URL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case CommandSweep:
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) storeMissing() []string {
	switch c.StoreType {
	case StorePostgres:
		if c.Database.URL == "" {
			return []string{"DATABASE_URL"}
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return []string{"MONGODB_URI"}
		}
	}
	return nil
}
