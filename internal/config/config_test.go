package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_TYPE", "")
	t.Setenv("ITEM_DELAY", "")
	t.Setenv("APPROVAL_GRACE", "")
	t.Setenv("FEEDS_NEWS", "")
	t.Setenv("FEEDS_STORIES", "Lobsters=https://lobste.rs/rss, https://dev.to/feed")

	cfg := LoadConfig()
	if cfg.StoreType != StorePostgres {
		t.Fatalf("expected postgres store by default, got %q", cfg.StoreType)
	}
	if cfg.ItemDelay != 30*time.Second || cfg.ApprovalGrace != 15*time.Minute {
		t.Fatalf("unexpected delays %v %v", cfg.ItemDelay, cfg.ApprovalGrace)
	}
	if got := cfg.Feeds["stories"]; len(got) != 2 {
		t.Fatalf("expected two story feeds, got %v", got)
	}
	if len(cfg.Feeds["news"]) != 0 {
		t.Fatalf("news feeds should fall back to defaults")
	}
}

func TestLoadConfigTelegram(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg := LoadConfig()
	if !cfg.TelegramEnabled() {
		t.Fatalf("expected telegram enabled")
	}
	if cfg.TelegramChatID != -100123 {
		t.Fatalf("unexpected chat id %d", cfg.TelegramChatID)
	}
}

func validGenerate() Config {
	cfg := Config{StoreType: StorePostgres}
	cfg.Database.URL = "postgres://localhost/blog"
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-test"
	cfg.LLM.APIKey = "sk-test"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		mutate  func(*Config)
		missing string
	}{
		{name: "generate ok", cmd: CommandGenerate, mutate: func(*Config) {}},
		{name: "generate without key", cmd: CommandGenerate, mutate: func(c *Config) { c.LLM.APIKey = "" }, missing: "LLM_API_KEY"},
		{name: "ollama needs no key", cmd: CommandGenerate, mutate: func(c *Config) { c.LLM.APIKey = ""; c.LLM.Provider = "ollama" }},
		{name: "generate without model", cmd: CommandGenerate, mutate: func(c *Config) { c.LLM.Model = "" }, missing: "LLM_MODEL"},
		{name: "generate without database", cmd: CommandGenerate, mutate: func(c *Config) { c.Database.URL = "" }, missing: "DATABASE_URL"},
		{name: "memory store needs no database", cmd: CommandGenerate, mutate: func(c *Config) { c.Database.URL = ""; c.StoreType = StoreMemory }},
		{name: "mongo needs uri", cmd: CommandSweep, mutate: func(c *Config) { c.StoreType = StoreMongo }, missing: "MONGODB_URI"},
		{name: "sweep ignores llm", cmd: CommandSweep, mutate: func(c *Config) { c.LLM = c.Classifier }},
		{name: "serve needs telegram", cmd: CommandServe, mutate: func(*Config) {}, missing: "TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID, TELEGRAM_WEBHOOK_SECRET"},
		{name: "migrate needs database", cmd: CommandMigrate, mutate: func(c *Config) { c.Database.URL = "" }, missing: "DATABASE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validGenerate()
			tt.mutate(&cfg)
			err := cfg.Validate(tt.cmd)
			if tt.missing == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrMissingCredential) {
				t.Fatalf("expected ErrMissingCredential, got %v", err)
			}
			if !strings.HasSuffix(err.Error(), tt.missing) {
				t.Fatalf("expected %q named in %q", tt.missing, err.Error())
			}
		})
	}
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	cfg := validGenerate()
	cfg.StoreType = "sqlite"
	err := cfg.Validate(CommandGenerate)
	if err == nil || errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestGenerationEnabled(t *testing.T) {
	cfg := validGenerate()
	if !cfg.GenerationEnabled() {
		t.Fatalf("expected generation enabled")
	}
	cfg.LLM.APIKey = ""
	if cfg.GenerationEnabled() {
		t.Fatalf("expected generation disabled without key")
	}
}
