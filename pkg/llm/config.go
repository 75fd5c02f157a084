package llm

import (
	"fmt"
	"strings"
	"time"

	"portfolio/pkg/config"
)

const defaultRequestTimeout = 60 * time.Second

type Config struct {
	Provider    string
	Model       string
	APIKey      string
	APIURL      string
	MaxTokens   int
	Temperature float64
	// Timeout bounds the whole HTTP exchange, including reading the stream.
	Timeout time.Duration
}

func LoadConfig() Config {
	return Config{
		Provider:  config.GetEnv("LLM_PROVIDER", "openai"),
		Model:     config.GetEnv("LLM_MODEL", ""),
		APIKey:    config.GetEnv("LLM_API_KEY", ""),
		APIURL:    config.GetEnv("LLM_API_URL", ""),
		MaxTokens: config.GetEnvInt("LLM_MAX_TOKENS", 8192),
		Timeout:   config.GetEnvDuration("GENERATION_TIMEOUT", 5*time.Minute),
	}
}

// LoadClassifierConfig loads the configuration for the small yes/no model,
// falling back to the LLM_* values when CLASSIFIER_* is unset.
func LoadClassifierConfig() Config {
	base := LoadConfig()
	return Config{
		Provider:  config.GetEnv("CLASSIFIER_LLM_PROVIDER", base.Provider),
		Model:     config.GetEnv("CLASSIFIER_LLM_MODEL", base.Model),
		APIKey:    config.GetEnv("CLASSIFIER_LLM_API_KEY", base.APIKey),
		APIURL:    config.GetEnv("CLASSIFIER_LLM_API_URL", base.APIURL),
		MaxTokens: config.GetEnvInt("CLASSIFIER_MAX_TOKENS", 256),
		Timeout:   config.GetEnvDuration("CLASSIFIER_TIMEOUT", 45*time.Second),
	}
}

func (c Config) requestTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultRequestTimeout
}

func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	case "gemini":
		return NewGeminiProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
